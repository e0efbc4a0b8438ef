package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestify/discovery/internal/filters"
	"github.com/nestify/discovery/internal/middleware"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/services"
)

type ProjectHandler struct {
	listingService *services.ListingService
	projectService *services.ProjectService
	facetService   *services.FacetService
	presenter      *Presenter
}

func NewProjectHandler(
	listingService *services.ListingService,
	projectService *services.ProjectService,
	facetService *services.FacetService,
	presenter *Presenter,
) *ProjectHandler {
	return &ProjectHandler{
		listingService: listingService,
		projectService: projectService,
		facetService:   facetService,
		presenter:      presenter,
	}
}

type publishRequest struct {
	IsPublished *bool `json:"is_published" binding:"required"`
}

// updateProjectRequest carries the editable fields; absent fields keep their
// stored value and an empty slug asks for a fresh one.
type updateProjectRequest struct {
	Name        *string   `json:"name"`
	Slug        *string   `json:"slug"`
	Description *string   `json:"description"`
	City        *string   `json:"city"`
	District    *string   `json:"district"`
	Address     *string   `json:"address"`
	Status      *string   `json:"status"`
	Amenities   *[]string `json:"amenities"`
	Tags        *[]string `json:"tags"`
	CoverImage  *string   `json:"cover_image"`
	Images      *[]string `json:"images"`
}

func (r updateProjectRequest) apply(p *models.Project) {
	setString := func(dst, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&p.Name, r.Name)
	setString(&p.Slug, r.Slug)
	setString(&p.Description, r.Description)
	setString(&p.City, r.City)
	setString(&p.District, r.District)
	setString(&p.Address, r.Address)
	setString(&p.CoverImage, r.CoverImage)
	if r.Status != nil {
		p.Status = models.ProjectStatus(*r.Status)
	}
	if r.Amenities != nil {
		p.Amenities = models.NewStringSet(*r.Amenities...)
	}
	if r.Tags != nil {
		p.Tags = models.NewStringSet(*r.Tags...)
	}
	if r.Images != nil {
		p.Images = models.NewStringSet(*r.Images...)
	}
}

// List returns a page of published projects.
func (h *ProjectHandler) List(c *gin.Context) {
	h.list(c, query.Public())
}

// MyProjects lists the caller's projects, drafts included.
func (h *ProjectHandler) MyProjects(c *gin.Context) {
	h.list(c, middleware.ActorScope(c))
}

func (h *ProjectHandler) list(c *gin.Context, scope query.Scope) {
	f := filters.ParseProjectFilter(c.Request.URL.Query(), filters.ProjectListing)

	page, err := h.listingService.SearchProjects(c.Request.Context(), f, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:           h.presenter.Projects(page.Items),
		Pagination:     newPagination(page.Page, page.Total),
		FiltersApplied: f.Applied(),
	})
}

// Show resolves the project by numeric id or by slug.
func (h *ProjectHandler) Show(c *gin.Context) {
	detail, err := h.listingService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	view := h.presenter.Project(detail.Project)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"project":    view,
			"properties": h.presenter.Properties(detail.Properties),
		},
	})
}

// Properties lists the units of a published project, cheapest first by
// default.
func (h *ProjectHandler) Properties(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	f := filters.ParsePropertyFilter(c.Request.URL.Query(), filters.ProjectUnitsListing)
	page, err := h.listingService.ProjectProperties(c.Request.Context(), id, f)
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

func (h *ProjectHandler) FilterOptions(c *gin.Context) {
	facets, err := h.facetService.ProjectFacets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, facets)
}

// Update edits one of the caller's projects.
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Malformed project payload"})
		return
	}

	scope := middleware.ActorScope(c)
	project, err := h.projectService.FindProject(c.Request.Context(), scope, id)
	if err != nil {
		respondError(c, err)
		return
	}

	req.apply(project)
	if err := h.projectService.UpdateProject(c.Request.Context(), scope, project); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": h.presenter.Project(project)})
}

// SetPublished publishes or unpublishes one of the caller's projects.
func (h *ProjectHandler) SetPublished(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "is_published is required", "field": "is_published"})
		return
	}

	project, err := h.projectService.SetPublished(c.Request.Context(), middleware.ActorScope(c), id, *req.IsPublished)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": h.presenter.Project(project)})
}

// Recount refreshes the unit counters of a project.
func (h *ProjectHandler) Recount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	counts, err := h.projectService.RecomputeUnitCounts(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_units":     counts.Total,
		"available_units": counts.Available,
		"sold_units":      counts.Sold,
		"reserved_units":  counts.Reserved,
		"starting_price":  counts.StartingPrice,
	})
}
