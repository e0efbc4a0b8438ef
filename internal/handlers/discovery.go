package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestify/discovery/internal/services"
)

type DiscoveryHandler struct {
	listingService *services.ListingService
	facetService   *services.FacetService
	presenter      *Presenter
}

func NewDiscoveryHandler(listingService *services.ListingService, facetService *services.FacetService, presenter *Presenter) *DiscoveryHandler {
	return &DiscoveryHandler{
		listingService: listingService,
		facetService:   facetService,
		presenter:      presenter,
	}
}

// FilterOptions returns the option lists of the search form.
func (h *DiscoveryHandler) FilterOptions(c *gin.Context) {
	options, err := h.facetService.FilterOptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, options)
}

func (h *DiscoveryHandler) Cities(c *gin.Context) {
	cities, err := h.facetService.Cities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cities})
}

func (h *DiscoveryHandler) PropertyTypes(c *gin.Context) {
	types, err := h.facetService.PropertyTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": types})
}

// Search looks up projects and properties at once. Without a term the
// latest listings are returned.
func (h *DiscoveryHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		term = c.Query("query")
	}
	kind := c.DefaultQuery("type", services.SearchAll)

	results, err := h.listingService.GlobalSearch(c.Request.Context(), term, kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":      term,
		"featured":   results.Featured,
		"projects":   h.presenter.Projects(results.Projects),
		"properties": h.presenter.Properties(results.Properties),
	})
}
