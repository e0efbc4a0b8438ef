package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
)

func newProject(name string, promoterID int64) *models.Project {
	return &models.Project{
		PromoterID: promoterID,
		Name:       name,
		City:       "Tunis",
		Status:     models.ProjectStatusPlanning,
	}
}

func TestCreateProjectSlugs(t *testing.T) {
	f := newFixture(t)
	service := NewProjectService(f.projects, nil, nil)
	ctx := context.Background()

	testCases := []struct {
		name     string
		project  *models.Project
		expected string
	}{
		{name: "Derived from name", project: newProject("Résidence Les Pins", 1), expected: "residence-les-pins"},
		{name: "Clash gets a suffix", project: newProject("Residence les pins", 1), expected: "residence-les-pins-2"},
		{name: "Second clash", project: newProject("RÉSIDENCE LES PINS!", 2), expected: "residence-les-pins-3"},
		{name: "Given slug is normalized", project: &models.Project{Name: "Autre", Slug: "Mon Slug", Status: models.ProjectStatusPlanning}, expected: "mon-slug"},
		{name: "Nothing sluggable", project: newProject("!!!", 1), expected: defaultSlug},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, service.CreateProject(ctx, tc.project))
			assert.Equal(t, tc.expected, tc.project.Slug)
			assert.NotZero(t, tc.project.ID)
		})
	}
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	service := NewProjectService(f.projects, nil, nil)

	invalid := newProject("  ", 1)
	err := service.CreateProject(context.Background(), invalid)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)

	units := newProject("Tour", 1)
	units.TotalUnits = 2
	units.AvailableUnits = 5
	assert.Error(t, service.CreateProject(context.Background(), units))
}

func TestCreatePublishedProjectStampsDate(t *testing.T) {
	f := newFixture(t)
	service := NewProjectService(f.projects, nil, nil)
	service.now = func() time.Time { return baseTime }

	project := newProject("Marina", 1)
	project.IsPublished = true
	require.NoError(t, service.CreateProject(context.Background(), project))
	require.NotNil(t, project.PublishedAt)
	assert.True(t, baseTime.Equal(*project.PublishedAt))
}

func TestUpdateProjectSlug(t *testing.T) {
	f := newFixture(t)
	service := NewProjectService(f.projects, nil, nil)
	ctx := context.Background()

	taken := f.project(t, func(p *models.Project) { p.Name = "Lac Bleu"; p.Slug = "lac-bleu" })
	unnamed := f.project(t, func(p *models.Project) { p.Slug = ""; p.PromoterID = 3 })
	named := f.project(t, func(p *models.Project) { p.Slug = "jardins"; p.PromoterID = 3 })

	t.Run("Empty slug is regenerated on rename", func(t *testing.T) {
		unnamed.Name = "Lac Bleu"
		require.NoError(t, service.UpdateProject(ctx, query.Owner(3), unnamed))
		assert.Equal(t, "lac-bleu-2", unnamed.Slug)
	})

	t.Run("Existing slug survives rename", func(t *testing.T) {
		named.Name = "Jardins d'Hiver"
		require.NoError(t, service.UpdateProject(ctx, query.Owner(3), named))
		assert.Equal(t, "jardins", named.Slug)
	})

	t.Run("Changed slug stays unique", func(t *testing.T) {
		named.Slug = taken.Slug
		require.NoError(t, service.UpdateProject(ctx, query.Owner(3), named))
		assert.Equal(t, "lac-bleu-3", named.Slug)
	})

	t.Run("Other promoters cannot update", func(t *testing.T) {
		taken.Name = "Pris"
		assert.ErrorIs(t, service.UpdateProject(ctx, query.Owner(3), taken), repositories.ErrNotFound)
		assert.NoError(t, service.UpdateProject(ctx, query.Admin(), taken))
	})

	found, err := f.projects.FindVisibleBySlug(ctx, "lac-bleu-3", query.True)
	require.NoError(t, err)
	assert.Equal(t, "Jardins d'Hiver", found.Name)
}

func TestSetPublished(t *testing.T) {
	f := newFixture(t)
	c, mr := newTestCache(t)
	service := NewProjectService(f.projects, c, nil)
	service.now = func() time.Time { return baseTime }
	ctx := context.Background()

	project := f.project(t, func(p *models.Project) { p.IsPublished = false; p.PromoterID = 5 })
	require.NoError(t, mr.Set(CachePrefixFacets+":projects", "{}"))
	require.NoError(t, mr.Set(CachePrefixStatistics+":properties", "{}"))
	require.NoError(t, mr.Set("unrelated", "1"))

	_, err := service.SetPublished(ctx, query.Owner(6), project.ID, true)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	published, err := service.SetPublished(ctx, query.Owner(5), project.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, baseTime.Equal(*published.PublishedAt))

	assert.False(t, mr.Exists(CachePrefixFacets+":projects"))
	assert.False(t, mr.Exists(CachePrefixStatistics+":properties"))
	assert.True(t, mr.Exists("unrelated"))

	unpublished, err := service.SetPublished(ctx, query.Owner(5), project.ID, false)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
	assert.Nil(t, unpublished.PublishedAt)
}

func TestRecomputeAll(t *testing.T) {
	f := newFixture(t)
	service := NewProjectService(f.projects, nil, nil)
	ctx := context.Background()

	first := f.project(t, nil)
	second := f.project(t, func(p *models.Project) { p.Slug = "second" })
	f.property(t, func(p *models.Property) { p.ProjectID = &first.ID; p.Price = 120000 })
	f.property(t, func(p *models.Property) { p.ProjectID = &first.ID; p.AvailabilityStatus = models.AvailabilitySold })

	done, err := service.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, done)

	found, err := f.projects.FindVisibleByID(ctx, first.ID, query.True)
	require.NoError(t, err)
	assert.Equal(t, 2, found.TotalUnits)
	assert.Equal(t, 1, found.AvailableUnits)
	assert.Equal(t, 120000.0, found.StartingPrice)

	found, err = f.projects.FindVisibleByID(ctx, second.ID, query.True)
	require.NoError(t, err)
	assert.Zero(t, found.TotalUnits)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = service.RecomputeAll(cancelled)
	assert.Error(t, err)
}
