package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/cache"
	"github.com/nestify/discovery/pkg/logger"
)

const (
	defaultSlug     = "projet"
	maxSlugAttempts = 100
)

type ProjectService struct {
	projectRepo *repositories.ProjectRepository
	cache       cache.Cache
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewProjectService(projectRepo *repositories.ProjectRepository, c cache.Cache, m *metrics.Metrics) *ProjectService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProjectService{
		projectRepo: projectRepo,
		cache:       c,
		metrics:     m,
		now:         time.Now,
	}
}

// CreateProject validates the project and assigns it a unique slug derived
// from the given slug, or from the name when none is given.
func (s *ProjectService) CreateProject(ctx context.Context, project *models.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	source := project.Slug
	if source == "" {
		source = project.Name
	}
	slug, err := s.uniqueSlug(ctx, source, 0)
	if err != nil {
		return err
	}
	project.Slug = slug

	if project.IsPublished && project.PublishedAt == nil {
		now := s.now().UTC()
		project.PublishedAt = &now
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// FindProject returns a project visible under scope, drafts included for its
// promoter.
func (s *ProjectService) FindProject(ctx context.Context, scope query.Scope, id int64) (*models.Project, error) {
	return s.projectRepo.FindVisibleByID(ctx, id, query.ProjectBase(scope))
}

// UpdateProject rewrites the editable fields of a project visible under
// scope. The slug is regenerated when the name changes and the stored slug
// was empty, or when the caller clears it.
func (s *ProjectService) UpdateProject(ctx context.Context, scope query.Scope, project *models.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	existing, err := s.projectRepo.FindVisibleByID(ctx, project.ID, query.ProjectBase(scope))
	if err != nil {
		return err
	}

	switch {
	case project.Slug == "":
		project.Slug, err = s.uniqueSlug(ctx, project.Name, project.ID)
	case existing.Slug == "" && existing.Name != project.Name:
		project.Slug, err = s.uniqueSlug(ctx, project.Name, project.ID)
	case project.Slug != existing.Slug:
		project.Slug, err = s.uniqueSlug(ctx, project.Slug, project.ID)
	}
	if err != nil {
		return err
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// SetPublished publishes or unpublishes a project visible under scope and
// returns its new state.
func (s *ProjectService) SetPublished(ctx context.Context, scope query.Scope, id int64, published bool) (*models.Project, error) {
	if _, err := s.projectRepo.FindVisibleByID(ctx, id, query.ProjectBase(scope)); err != nil {
		return nil, err
	}

	var publishedAt *time.Time
	if published {
		now := s.now().UTC()
		publishedAt = &now
	}
	if err := s.projectRepo.SetPublished(ctx, id, publishedAt); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.projectRepo.FindVisibleByID(ctx, id, query.True)
}

// RecomputeUnitCounts refreshes the unit counters of one project.
func (s *ProjectService) RecomputeUnitCounts(ctx context.Context, id int64) (models.UnitCounts, error) {
	counts, err := s.projectRepo.RecomputeUnitCounts(ctx, id)
	if err != nil {
		s.metrics.RecordUnitRecount("failure")
		return counts, err
	}
	s.metrics.RecordUnitRecount("success")
	return counts, nil
}

// RecomputeAll refreshes every project and returns how many succeeded. It
// stops early only when ctx is done.
func (s *ProjectService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.projectRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := s.RecomputeUnitCounts(ctx, id); err != nil {
			logger.WithError(err).WithField("project_id", id).Warnf("Failed to recount project units")
			continue
		}
		done++
	}

	if done > 0 {
		s.invalidate(ctx)
	}
	return done, nil
}

// uniqueSlug appends -2, -3 ... to the slug of source until it is free.
func (s *ProjectService) uniqueSlug(ctx context.Context, source string, exceptID int64) (string, error) {
	base := Slugify(source)
	if base == "" {
		base = defaultSlug
	}

	candidate := base
	for n := 2; n <= maxSlugAttempts; n++ {
		taken, err := s.projectRepo.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}

	return base + "-" + uuid.NewString()[:8], nil
}

func (s *ProjectService) invalidate(ctx context.Context) {
	invalidateAggregates(ctx, s.cache)
}

// invalidateAggregates drops the cached facets and statistics after a write
// that changes what the public sees.
func invalidateAggregates(ctx context.Context, c cache.Cache) {
	for _, prefix := range []string{CachePrefixFacets, CachePrefixStatistics} {
		if err := c.Invalidate(ctx, prefix); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).WithField("prefix", prefix).Warnf("Failed to invalidate cache")
		}
	}
}
