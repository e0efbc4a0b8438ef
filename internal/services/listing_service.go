package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/nestify/discovery/internal/filters"
	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/logger"
)

// Limits of the non-paginated listings.
const (
	ProjectDetailUnits = 50
	GlobalSearchLimit  = 5
)

// Global search kinds.
const (
	SearchAll        = "all"
	SearchProjects   = "projects"
	SearchProperties = "properties"
)

type PropertyPage struct {
	Items []*models.Property
	Total int
	Page  filters.Page
}

type ProjectPage struct {
	Items []*models.Project
	Total int
	Page  filters.Page
}

type ProjectDetail struct {
	Project    *models.Project
	Properties []*models.Property
}

// GlobalResults holds the matches of a global search. Featured is set when
// no term was given and the latest listings are returned instead.
type GlobalResults struct {
	Projects   []*models.Project
	Properties []*models.Property
	Featured   bool
}

type ListingService struct {
	propertyRepo *repositories.PropertyRepository
	projectRepo  *repositories.ProjectRepository
	metrics      *metrics.Metrics
}

func NewListingService(propertyRepo *repositories.PropertyRepository, projectRepo *repositories.ProjectRepository, m *metrics.Metrics) *ListingService {
	return &ListingService{
		propertyRepo: propertyRepo,
		projectRepo:  projectRepo,
		metrics:      m,
	}
}

// SearchProperties runs a property listing under scope.
func (s *ListingService) SearchProperties(ctx context.Context, f filters.PropertyFilter, scope query.Scope) (*PropertyPage, error) {
	q := query.ComposeProperties(f, scope)
	logger.WithField("query", query.Describe(q)).Debug("Searching properties")

	items, total, err := s.propertyRepo.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSearch(SearchProperties, total)
	return &PropertyPage{Items: items, Total: total, Page: f.Page}, nil
}

func (s *ListingService) SearchProjects(ctx context.Context, f filters.ProjectFilter, scope query.Scope) (*ProjectPage, error) {
	q := query.ComposeProjects(f, scope)
	logger.WithField("query", query.Describe(q)).Debug("Searching projects")

	items, total, err := s.projectRepo.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSearch(SearchProjects, total)
	return &ProjectPage{Items: items, Total: total, Page: f.Page}, nil
}

// GetProperty returns a publicly visible property and counts the view.
// A failed view update is logged and does not fail the read.
func (s *ListingService) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	property, err := s.propertyRepo.FindVisibleByID(ctx, id, query.PublicProperties)
	if err != nil {
		return nil, err
	}

	if err := s.propertyRepo.IncrementViews(ctx, id); err != nil {
		logger.WithError(err).WithField("property_id", id).Warnf("Failed to increment property views")
		s.metrics.RecordViewIncrementFailure("property")
	} else {
		property.Views++
	}
	return property, nil
}

// GetProject resolves idOrSlug as a numeric id first, then as a slug, and
// returns the published project with its validated units, cheapest first.
func (s *ListingService) GetProject(ctx context.Context, idOrSlug string) (*ProjectDetail, error) {
	project, err := s.findPublishedProject(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	units, err := s.propertyRepo.List(ctx, query.ComposeProperties(filters.PropertyFilter{
		ProjectID: &project.ID,
		Sort:      filters.Sort{Field: filters.SortPrice},
		Page:      filters.Page{Number: 1, PerPage: ProjectDetailUnits},
	}, query.Public()))
	if err != nil {
		return nil, err
	}

	if err := s.projectRepo.IncrementViews(ctx, project.ID); err != nil {
		logger.WithError(err).WithField("project_id", project.ID).Warnf("Failed to increment project views")
		s.metrics.RecordViewIncrementFailure("project")
	} else {
		project.Views++
	}

	return &ProjectDetail{Project: project, Properties: units}, nil
}

func (s *ListingService) findPublishedProject(ctx context.Context, idOrSlug string) (*models.Project, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, repositories.ErrNotFound
	}

	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil && id > 0 {
		project, err := s.projectRepo.FindVisibleByID(ctx, id, query.PublishedProjects)
		if !errors.Is(err, repositories.ErrNotFound) {
			return project, err
		}
	}
	return s.projectRepo.FindVisibleBySlug(ctx, idOrSlug, query.PublishedProjects)
}

// ProjectProperties lists the validated units of a published project.
func (s *ListingService) ProjectProperties(ctx context.Context, projectID int64, f filters.PropertyFilter) (*PropertyPage, error) {
	if _, err := s.projectRepo.FindVisibleByID(ctx, projectID, query.PublishedProjects); err != nil {
		return nil, err
	}

	f.ProjectID = &projectID
	return s.SearchProperties(ctx, f, query.Public())
}

// GlobalSearch looks up projects and properties matching term. Unknown
// kinds search both.
func (s *ListingService) GlobalSearch(ctx context.Context, term, kind string) (*GlobalResults, error) {
	term = strings.TrimSpace(term)
	page := filters.Page{Number: 1, PerPage: GlobalSearchLimit}
	latest := filters.Sort{Field: filters.SortCreatedAt, Desc: true}

	results := &GlobalResults{Featured: term == ""}
	if results.Featured {
		kind = SearchAll
	}

	if kind != SearchProperties {
		projects, err := s.projectRepo.List(ctx, query.ComposeProjects(filters.ProjectFilter{Search: term, Sort: latest, Page: page}, query.Public()))
		if err != nil {
			return nil, err
		}
		results.Projects = projects
	}

	if kind != SearchProjects {
		properties, err := s.propertyRepo.List(ctx, query.ComposeProperties(filters.PropertyFilter{Search: term, Sort: latest, Page: page}, query.Public()))
		if err != nil {
			return nil, err
		}
		results.Properties = properties
	}

	s.metrics.RecordSearch(SearchAll, len(results.Projects)+len(results.Properties))
	return results, nil
}
