package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/cache"
	"github.com/nestify/discovery/pkg/logger"
)

// ModerationService decides which properties the public may see.
type ModerationService struct {
	propertyRepo *repositories.PropertyRepository
	cache        cache.Cache
}

func NewModerationService(propertyRepo *repositories.PropertyRepository, c cache.Cache) *ModerationService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ModerationService{propertyRepo: propertyRepo, cache: c}
}

// SetValidated shows or hides a property and returns its new state.
func (s *ModerationService) SetValidated(ctx context.Context, id int64, validated bool) (*models.Property, error) {
	if err := s.propertyRepo.SetValidated(ctx, id, validated); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"property_id": id,
		"validated":   validated,
	}).Info("Property moderation changed")

	invalidateAggregates(ctx, s.cache)
	return s.propertyRepo.FindVisibleByID(ctx, id, query.True)
}
