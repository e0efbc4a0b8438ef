package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/pkg/database"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedProperty inserts a validated, available Appartement in Tunis unless
// mutate says otherwise.
func seedProperty(t *testing.T, repo *PropertyRepository, mutate func(p *models.Property)) *models.Property {
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
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func seedProject(t *testing.T, repo *ProjectRepository, mutate func(p *models.Project)) *models.Project {
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
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func ids(properties []*models.Property) []int64 {
	out := make([]int64, len(properties))
	for i, p := range properties {
		out[i] = p.ID
	}
	return out
}
