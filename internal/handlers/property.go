package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestify/discovery/internal/filters"
	"github.com/nestify/discovery/internal/middleware"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PropertyHandler struct {
	listingService    *services.ListingService
	facetService      *services.FacetService
	suggestionService *services.SuggestionService
	similarityService *services.SimilarityService
	statisticsService *services.StatisticsService
	exportService     *services.ExportService
	moderationService *services.ModerationService
	presenter         *Presenter
}

func NewPropertyHandler(
	listingService *services.ListingService,
	facetService *services.FacetService,
	suggestionService *services.SuggestionService,
	similarityService *services.SimilarityService,
	statisticsService *services.StatisticsService,
	exportService *services.ExportService,
	moderationService *services.ModerationService,
	presenter *Presenter,
) *PropertyHandler {
	return &PropertyHandler{
		listingService:    listingService,
		facetService:      facetService,
		suggestionService: suggestionService,
		similarityService: similarityService,
		statisticsService: statisticsService,
		exportService:     exportService,
		moderationService: moderationService,
		presenter:         presenter,
	}
}

// List returns a page of publicly visible properties.
func (h *PropertyHandler) List(c *gin.Context) {
	h.list(c, filters.PropertyListing, query.Public())
}

// MyProperties lists the caller's own properties, validated or not.
func (h *PropertyHandler) MyProperties(c *gin.Context) {
	h.list(c, filters.PropertyListing, middleware.ActorScope(c))
}

func (h *PropertyHandler) AdminProperties(c *gin.Context) {
	h.list(c, filters.AdminListing, query.Admin())
}

func (h *PropertyHandler) list(c *gin.Context, defaults filters.Defaults, scope query.Scope) {
	f := filters.ParsePropertyFilter(c.Request.URL.Query(), defaults)

	page, err := h.listingService.SearchProperties(c.Request.Context(), f, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:           h.presenter.Properties(page.Items),
		Pagination:     newPagination(page.Page, page.Total),
		FiltersApplied: f.Applied(),
	})
}

func (h *PropertyHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	property, err := h.listingService.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": h.presenter.Property(property)})
}

func (h *PropertyHandler) Similar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	similar, err := h.similarityService.Similar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.presenter.Properties(similar))
}

// Suggestions accepts the term as query or q.
func (h *PropertyHandler) Suggestions(c *gin.Context) {
	term := c.Query("query")
	if term == "" {
		term = c.Query("q")
	}

	suggestions, err := h.suggestionService.Suggest(c.Request.Context(), term)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// FilterOptions returns the detailed facets of the property search.
func (h *PropertyHandler) FilterOptions(c *gin.Context) {
	facets, err := h.facetService.PropertyFacets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, facets)
}

func (h *PropertyHandler) Statistics(c *gin.Context) {
	stats, err := h.statisticsService.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

type validateRequest struct {
	Validated *bool `json:"validated" binding:"required"`
}

// SetValidated shows or hides a property on the public listings.
func (h *PropertyHandler) SetValidated(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validated is required", "field": "validated"})
		return
	}

	property, err := h.moderationService.SetValidated(c.Request.Context(), id, *req.Validated)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": h.presenter.Property(property)})
}

// Export streams the filtered public properties as a workbook. The file is
// built in memory so a failure still gets a JSON error.
func (h *PropertyHandler) Export(c *gin.Context) {
	f := filters.ParsePropertyFilter(c.Request.URL.Query(), filters.PropertyListing)

	var buf bytes.Buffer
	if _, err := h.exportService.ExportProperties(c.Request.Context(), f, &buf); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("biens_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
