package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/repositories"
)

func TestSimilar(t *testing.T) {
	f := newFixture(t)
	service := NewSimilarityService(f.properties, nil)
	ctx := context.Background()

	ref := f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeVilla; p.City = "Tunis"; p.Price = 300000 })

	sameType := f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeVilla; p.City = "Sfax"; p.Price = 900000 })
	sameCity := f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeStudio; p.City = "Tunis"; p.Price = 50000 })
	cheaper := f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeStudio; p.City = "Sfax"; p.Price = 240001 })
	dearer := f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeStudio; p.City = "Sfax"; p.Price = 359999 })

	// None of the three criteria.
	f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeStudio; p.City = "Sfax"; p.Price = 239000 })
	f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeStudio; p.City = "Sfax"; p.Price = 361000 })
	// Matching but not eligible.
	f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeVilla; p.AvailabilityStatus = models.AvailabilitySold })
	f.property(t, func(p *models.Property) { p.Type = models.PropertyTypeVilla; p.Validated = false })

	similar, err := service.Similar(ctx, ref.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{sameType.ID, sameCity.ID, cheaper.ID, dearer.ID}, propertyIDs(similar))
	assert.NotContains(t, propertyIDs(similar), ref.ID)
}

func TestSimilarLimitAndOrder(t *testing.T) {
	f := newFixture(t)
	service := NewSimilarityService(f.properties, nil)

	ref := f.property(t, nil)
	var ids []int64
	for i := 0; i < MaxSimilar+2; i++ {
		ids = append(ids, f.property(t, nil).ID)
	}

	similar, err := service.Similar(context.Background(), ref.ID)
	require.NoError(t, err)
	require.Len(t, similar, MaxSimilar)

	// Newest first with equal created_at falls back to id desc.
	assert.Equal(t, ids[len(ids)-1], similar[0].ID)
	assert.Equal(t, ids[2], similar[MaxSimilar-1].ID)
}

func TestSimilarRequiresVisibleReference(t *testing.T) {
	f := newFixture(t)
	service := NewSimilarityService(f.properties, nil)
	ctx := context.Background()

	hidden := f.property(t, func(p *models.Property) { p.Validated = false })
	f.property(t, nil)

	_, err := service.Similar(ctx, hidden.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = service.Similar(ctx, 9999)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestSimilarReferenceMayBeSold(t *testing.T) {
	f := newFixture(t)
	service := NewSimilarityService(f.properties, nil)

	ref := f.property(t, func(p *models.Property) { p.AvailabilityStatus = models.AvailabilitySold })
	other := f.property(t, nil)

	similar, err := service.Similar(context.Background(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{other.ID}, propertyIDs(similar))
}
