package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
)

func TestModerationSetValidated(t *testing.T) {
	f := newFixture(t)
	c, mr := newTestCache(t)
	service := NewModerationService(f.properties, c)
	ctx := context.Background()

	property := f.property(t, nil)
	require.NoError(t, mr.Set(CachePrefixFacets+":properties", "{}"))
	require.NoError(t, mr.Set(CachePrefixStatistics+":properties", "{}"))

	hidden, err := service.SetValidated(ctx, property.ID, false)
	require.NoError(t, err)
	assert.False(t, hidden.Validated)
	assert.False(t, mr.Exists(CachePrefixFacets+":properties"))
	assert.False(t, mr.Exists(CachePrefixStatistics+":properties"))

	_, err = f.properties.FindVisibleByID(ctx, property.ID, query.PropertyBase(query.Public()))
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	shown, err := service.SetValidated(ctx, property.ID, true)
	require.NoError(t, err)
	assert.True(t, shown.Validated)

	_, err = service.SetValidated(ctx, 424242, true)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
