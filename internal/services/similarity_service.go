package services

import (
	"context"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
)

const (
	MaxSimilar = 6

	similarPriceLow  = 0.8
	similarPriceHigh = 1.2
)

type SimilarityService struct {
	propertyRepo *repositories.PropertyRepository
	metrics      *metrics.Metrics
}

func NewSimilarityService(propertyRepo *repositories.PropertyRepository, m *metrics.Metrics) *SimilarityService {
	return &SimilarityService{
		propertyRepo: propertyRepo,
		metrics:      m,
	}
}

// Similar returns up to MaxSimilar available properties sharing the type or
// the city of the reference, or priced within 20% of it. Candidates keep the
// default listing order.
func (s *SimilarityService) Similar(ctx context.Context, id int64) ([]*models.Property, error) {
	ref, err := s.propertyRepo.FindVisibleByID(ctx, id, query.PublicProperties)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSimilarLookup()

	return s.propertyRepo.List(ctx, query.Query{
		Where:   SimilarTo(ref),
		OrderBy: query.DefaultPropertyOrder(),
		Limit:   MaxSimilar,
	})
}

// SimilarTo is the candidate predicate for ref.
func SimilarTo(ref *models.Property) query.Predicate {
	return query.And(
		query.PublicProperties,
		query.AvailableProperty,
		query.Neq(query.PropertyID, ref.ID),
		query.Or(
			query.Eq(query.PropertyType, string(ref.Type)),
			query.Eq(query.PropertyCity, ref.City),
			query.And(
				query.Gte(query.PropertyPrice, ref.Price*similarPriceLow),
				query.Lte(query.PropertyPrice, ref.Price*similarPriceHigh),
			),
		),
	)
}
