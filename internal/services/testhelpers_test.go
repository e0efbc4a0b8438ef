package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/database"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db         *sql.DB
	properties *repositories.PropertyRepository
	projects   *repositories.ProjectRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fixture{
		db:         db,
		properties: repositories.NewPropertyRepository(db),
		projects:   repositories.NewProjectRepository(db),
	}
}

// property inserts a validated, available Appartement in Tunis priced
// 200000 unless mutate says otherwise.
func (f *fixture) property(t *testing.T, mutate func(p *models.Property)) *models.Property {
	t.Helper()
	p := &models.Property{
		Title:              "Appartement lumineux",
		Type:               models.PropertyTypeAppartement,
		Price:              200000,
		Surface:            100,
		City:               "Tunis",
		Bedrooms:           2,
		Bathrooms:          1,
		AvailabilityStatus: models.AvailabilityAvailable,
		Validated:          true,
		CreatedAt:          baseTime,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, p.Validate())
	require.NoError(t, f.properties.Create(context.Background(), p))
	return p
}

func (f *fixture) project(t *testing.T, mutate func(p *models.Project)) *models.Project {
	t.Helper()
	p := &models.Project{
		Name:        "Les Jardins de Carthage",
		Slug:        "les-jardins-de-carthage",
		City:        "Tunis",
		District:    "Carthage",
		Status:      models.ProjectStatusUnderConstruction,
		IsPublished: true,
		CreatedAt:   baseTime,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, p.Validate())
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p
}

func propertyIDs(properties []*models.Property) []int64 {
	out := make([]int64, len(properties))
	for i, p := range properties {
		out[i] = p.ID
	}
	return out
}
