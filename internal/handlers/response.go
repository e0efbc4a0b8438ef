package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestify/discovery/internal/filters"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/internal/services"
	"github.com/nestify/discovery/pkg/logger"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = "5"

type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

func newPagination(page filters.Page, total int) Pagination {
	return Pagination{
		CurrentPage: page.Number,
		LastPage:    page.LastPage(total),
		PerPage:     page.PerPage,
		Total:       total,
	}
}

type ListResponse struct {
	Data           interface{}            `json:"data"`
	Pagination     Pagination             `json:"pagination"`
	FiltersApplied map[string]interface{} `json:"filters_applied"`
}

type ProjectRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PropertyView struct {
	ID                 int64                     `json:"id"`
	ProjectID          *int64                    `json:"project_id"`
	Project            *ProjectRef               `json:"project"`
	Title              string                    `json:"title"`
	Description        string                    `json:"description"`
	Reference          string                    `json:"reference"`
	Type               models.PropertyType       `json:"type"`
	Price              float64                   `json:"price"`
	Surface            int                       `json:"surface"`
	City               string                    `json:"city"`
	District           string                    `json:"district"`
	Address            string                    `json:"address"`
	Bedrooms           int                       `json:"bedrooms"`
	Bathrooms          int                       `json:"bathrooms"`
	Floor              int                       `json:"floor"`
	Parking            bool                      `json:"parking"`
	Elevator           bool                      `json:"elevator"`
	Terrace            bool                      `json:"terrace"`
	Garden             bool                      `json:"garden"`
	IsVefa             bool                      `json:"is_vefa"`
	Features           models.StringSet          `json:"features"`
	AvailabilityStatus models.AvailabilityStatus `json:"availability_status"`
	Validated          bool                      `json:"validated"`
	Views              int64                     `json:"views"`
	Images             []string                  `json:"images"`
	PublishedDate      *time.Time                `json:"published_date"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

type ProjectView struct {
	ID             int64                `json:"id"`
	PromoterID     int64                `json:"promoter_id"`
	Name           string               `json:"name"`
	Slug           string               `json:"slug"`
	Description    string               `json:"description"`
	City           string               `json:"city"`
	District       string               `json:"district"`
	Address        string               `json:"address"`
	Status         models.ProjectStatus `json:"status"`
	TotalUnits     int                  `json:"total_units"`
	AvailableUnits int                  `json:"available_units"`
	StartingPrice  float64              `json:"starting_price"`
	Amenities      models.StringSet     `json:"amenities"`
	Tags           models.StringSet     `json:"tags"`
	IsVefa         bool                 `json:"is_vefa"`
	CoverImage     string               `json:"cover_image"`
	Images         []string             `json:"images"`
	Views          int64                `json:"views"`
	IsPublished    bool                 `json:"is_published"`
	PublishedAt    *time.Time           `json:"published_at"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Presenter turns models into response views with public image URLs.
type Presenter struct {
	images *services.ImageResolver
}

func NewPresenter(images *services.ImageResolver) *Presenter {
	return &Presenter{images: images}
}

func (p *Presenter) Property(m *models.Property) PropertyView {
	view := PropertyView{
		ID:                 m.ID,
		ProjectID:          m.ProjectID,
		Title:              m.Title,
		Description:        m.Description,
		Reference:          m.Reference,
		Type:               m.Type,
		Price:              m.Price,
		Surface:            m.Surface,
		City:               m.City,
		District:           m.District,
		Address:            m.Address,
		Bedrooms:           m.Bedrooms,
		Bathrooms:          m.Bathrooms,
		Floor:              m.Floor,
		Parking:            m.Parking,
		Elevator:           m.Elevator,
		Terrace:            m.Terrace,
		Garden:             m.Garden,
		IsVefa:             m.IsVefa,
		Features:           m.Features,
		AvailabilityStatus: m.AvailabilityStatus,
		Validated:          m.Validated,
		Views:              m.Views,
		Images:             p.images.ResolveAll(m.Images),
		PublishedDate:      m.PublishedDate,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.ProjectID != nil {
		view.Project = &ProjectRef{ID: *m.ProjectID, Name: m.ProjectName, Slug: m.ProjectSlug}
	}
	return view
}

func (p *Presenter) Properties(items []*models.Property) []PropertyView {
	views := make([]PropertyView, len(items))
	for i, m := range items {
		views[i] = p.Property(m)
	}
	return views
}

func (p *Presenter) Project(m *models.Project) ProjectView {
	return ProjectView{
		ID:             m.ID,
		PromoterID:     m.PromoterID,
		Name:           m.Name,
		Slug:           m.Slug,
		Description:    m.Description,
		City:           m.City,
		District:       m.District,
		Address:        m.Address,
		Status:         m.Status,
		TotalUnits:     m.TotalUnits,
		AvailableUnits: m.AvailableUnits,
		StartingPrice:  m.StartingPrice,
		Amenities:      m.Amenities,
		Tags:           m.Tags,
		IsVefa:         m.IsVefa(),
		CoverImage:     p.images.Resolve(m.CoverImage),
		Images:         p.images.ResolveAll(m.Images),
		Views:          m.Views,
		IsPublished:    m.IsPublished,
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (p *Presenter) Projects(items []*models.Project) []ProjectView {
	views := make([]ProjectView, len(items))
	for i, m := range items {
		views[i] = p.Project(m)
	}
	return views
}

// respondError maps service errors to status codes. Not-found and hidden
// listings share one response.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validationErr *models.ValidationError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.Is(err, repositories.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	case repositories.IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable", "retryable": true})
	case errors.Is(err, context.Canceled):
		// The client is gone.
		c.Status(http.StatusServiceUnavailable)
	default:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Errorf("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseID reads a positive numeric path parameter. Anything else is
// reported as not found.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return 0, false
	}
	return id, true
}
