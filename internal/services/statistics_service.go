package services

import (
	"context"
	"math"
	"time"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/cache"
)

const (
	topCities    = 10
	recentWindow = 30 * 24 * time.Hour
)

// PriceDistribution buckets are half-open: a price of exactly 100000 counts
// in Between100k300k only. Over1M starts strictly above one million.
type PriceDistribution struct {
	Under100k       int `json:"under_100k"`
	Between100k300k int `json:"100k_300k"`
	Between300k500k int `json:"300k_500k"`
	Between500k1M   int `json:"500k_1m"`
	Over1M          int `json:"over_1m"`
}

type Statistics struct {
	TotalProperties   int                 `json:"total_properties"`
	AveragePrice      float64             `json:"average_price"`
	AverageSurface    float64             `json:"average_surface"`
	PropertiesByType  []models.ValueCount `json:"properties_by_type"`
	PropertiesByCity  []models.ValueCount `json:"properties_by_city"`
	PriceDistribution PriceDistribution   `json:"price_distribution"`
	RecentProperties  int                 `json:"recent_properties"`
}

type StatisticsService struct {
	propertyRepo *repositories.PropertyRepository
	cache        cache.Cache
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewStatisticsService(propertyRepo *repositories.PropertyRepository, c cache.Cache, m *metrics.Metrics) *StatisticsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &StatisticsService{
		propertyRepo: propertyRepo,
		cache:        c,
		metrics:      m,
		now:          time.Now,
	}
}

// Statistics summarizes publicly visible properties.
func (s *StatisticsService) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	err := s.cache.Remember(ctx, CachePrefixStatistics+":properties", stats, func(ctx context.Context) (interface{}, error) {
		s.metrics.RecordAggregateLoad("statistics")
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *StatisticsService) load(ctx context.Context) (*Statistics, error) {
	base := query.PublicProperties
	stats := &Statistics{}

	var err error
	if stats.TotalProperties, err = s.propertyRepo.Count(ctx, base); err != nil {
		return nil, err
	}

	price, err := s.propertyRepo.NumericRange(ctx, "price", base, false)
	if err != nil {
		return nil, err
	}
	surface, err := s.propertyRepo.NumericRange(ctx, "surface", base, false)
	if err != nil {
		return nil, err
	}
	stats.AveragePrice = round2(price.Avg)
	stats.AverageSurface = round2(surface.Avg)

	if stats.PropertiesByType, err = s.propertyRepo.DistinctValuesAndCounts(ctx, "type", base, 0); err != nil {
		return nil, err
	}
	if stats.PropertiesByCity, err = s.propertyRepo.DistinctValuesAndCounts(ctx, "city", base, topCities); err != nil {
		return nil, err
	}

	for _, bucket := range []struct {
		dest *int
		pred query.Predicate
	}{
		{&stats.PriceDistribution.Under100k, query.Lt(query.PropertyPrice, 100000)},
		{&stats.PriceDistribution.Between100k300k, query.And(query.Gte(query.PropertyPrice, 100000), query.Lt(query.PropertyPrice, 300000))},
		{&stats.PriceDistribution.Between300k500k, query.And(query.Gte(query.PropertyPrice, 300000), query.Lt(query.PropertyPrice, 500000))},
		{&stats.PriceDistribution.Between500k1M, query.And(query.Gte(query.PropertyPrice, 500000), query.Lte(query.PropertyPrice, 1000000))},
		{&stats.PriceDistribution.Over1M, query.Gt(query.PropertyPrice, 1000000)},
	} {
		if *bucket.dest, err = s.propertyRepo.Count(ctx, query.And(base, bucket.pred)); err != nil {
			return nil, err
		}
	}

	since := s.now().UTC().Add(-recentWindow)
	if stats.RecentProperties, err = s.propertyRepo.Count(ctx, query.And(base, query.Gte("p.created_at", since))); err != nil {
		return nil, err
	}

	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
