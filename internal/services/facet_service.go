package services

import (
	"context"
	"math"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/cache"
)

// Cache key prefixes of the aggregate payloads.
const (
	CachePrefixFacets     = "discovery:facets"
	CachePrefixStatistics = "discovery:stats"
)

// Fallback price range when no validated property has a price.
const (
	fallbackMinPrice = 0
	fallbackMaxPrice = 1000000
	fallbackAvgPrice = 300000
)

type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var PropertySortOptions = []SortOption{
	{Value: "price_asc", Label: "Prix croissant"},
	{Value: "price_desc", Label: "Prix décroissant"},
	{Value: "surface_asc", Label: "Surface croissante"},
	{Value: "surface_desc", Label: "Surface décroissante"},
	{Value: "created_at_desc", Label: "Plus récent"},
	{Value: "created_at_asc", Label: "Plus ancien"},
	{Value: "views_desc", Label: "Plus consultés"},
}

// PropertyFacets describes the filterable values of publicly visible
// properties. User filters never narrow it.
type PropertyFacets struct {
	Types             []models.ValueCount `json:"types"`
	Cities            []models.ValueCount `json:"cities"`
	Districts         []models.ValueCount `json:"districts"`
	PriceRange        models.NumericRange `json:"price_range"`
	SurfaceRange      models.NumericRange `json:"surface_range"`
	BedroomRange      models.NumericRange `json:"bedroom_range"`
	BathroomRange     models.NumericRange `json:"bathroom_range"`
	AvailableFeatures []string            `json:"available_features"`
	SortOptions       []SortOption        `json:"sort_options"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// FilterOptions is the compact option set of the search form.
type FilterOptions struct {
	Cities       []string   `json:"cities"`
	Governorates []string   `json:"governorates"`
	Types        []string   `json:"types"`
	PriceRange   PriceRange `json:"price_range"`
	Amenities    []string   `json:"amenities"`
}

type ProjectFacets struct {
	Cities             []models.ValueCount `json:"cities"`
	Districts          []models.ValueCount `json:"districts"`
	Statuses           []models.ValueCount `json:"statuses"`
	StartingPriceRange models.NumericRange `json:"starting_price_range"`
	Amenities          []string            `json:"amenities"`
}

type FacetService struct {
	propertyRepo *repositories.PropertyRepository
	projectRepo  *repositories.ProjectRepository
	cache        cache.Cache
	metrics      *metrics.Metrics
}

func NewFacetService(propertyRepo *repositories.PropertyRepository, projectRepo *repositories.ProjectRepository, c cache.Cache, m *metrics.Metrics) *FacetService {
	if c == nil {
		c = cache.Noop{}
	}
	return &FacetService{
		propertyRepo: propertyRepo,
		projectRepo:  projectRepo,
		cache:        c,
		metrics:      m,
	}
}

func (s *FacetService) PropertyFacets(ctx context.Context) (*PropertyFacets, error) {
	facets := &PropertyFacets{}
	err := s.cache.Remember(ctx, CachePrefixFacets+":properties", facets, func(ctx context.Context) (interface{}, error) {
		s.metrics.RecordAggregateLoad("property_facets")
		return s.loadPropertyFacets(ctx)
	})
	if err != nil {
		return nil, err
	}
	return facets, nil
}

func (s *FacetService) loadPropertyFacets(ctx context.Context) (*PropertyFacets, error) {
	base := query.PublicProperties
	facets := &PropertyFacets{
		AvailableFeatures: models.PropertyFeatures,
		SortOptions:       PropertySortOptions,
	}

	var err error
	for _, group := range []struct {
		field string
		dest  *[]models.ValueCount
	}{
		{"type", &facets.Types},
		{"city", &facets.Cities},
		{"district", &facets.Districts},
	} {
		if *group.dest, err = s.propertyRepo.DistinctValuesAndCounts(ctx, group.field, base, 0); err != nil {
			return nil, err
		}
	}

	for _, numeric := range []struct {
		field        string
		positiveOnly bool
		dest         *models.NumericRange
	}{
		{"price", false, &facets.PriceRange},
		{"surface", false, &facets.SurfaceRange},
		{"bedrooms", true, &facets.BedroomRange},
		{"bathrooms", true, &facets.BathroomRange},
	} {
		if *numeric.dest, err = s.propertyRepo.NumericRange(ctx, numeric.field, base, numeric.positiveOnly); err != nil {
			return nil, err
		}
	}

	return facets, nil
}

func (s *FacetService) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	options := &FilterOptions{}
	err := s.cache.Remember(ctx, CachePrefixFacets+":options", options, func(ctx context.Context) (interface{}, error) {
		s.metrics.RecordAggregateLoad("filter_options")
		return s.loadFilterOptions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}

func (s *FacetService) loadFilterOptions(ctx context.Context) (*FilterOptions, error) {
	cities, err := s.propertyRepo.DistinctValuesAndCounts(ctx, "city", query.PublicProperties, 0)
	if err != nil {
		return nil, err
	}

	price, err := s.propertyRepo.NumericRange(ctx, "price", query.PublicProperties, false)
	if err != nil {
		return nil, err
	}

	options := &FilterOptions{
		Cities:       make([]string, 0, len(cities)),
		Governorates: models.Governorates,
		Types:        make([]string, 0, len(models.PropertyTypes)),
		Amenities:    models.ProjectAmenities,
	}
	for _, c := range cities {
		options.Cities = append(options.Cities, c.Value)
	}
	collate.New(language.French).SortStrings(options.Cities)

	for _, t := range models.PropertyTypes {
		options.Types = append(options.Types, string(t))
	}

	if price.Samples == 0 {
		options.PriceRange = PriceRange{Min: fallbackMinPrice, Max: fallbackMaxPrice, Avg: fallbackAvgPrice}
	} else {
		options.PriceRange = PriceRange{Min: price.Min, Max: price.Max, Avg: math.Round(price.Avg)}
	}
	return options, nil
}

func (s *FacetService) ProjectFacets(ctx context.Context) (*ProjectFacets, error) {
	facets := &ProjectFacets{}
	err := s.cache.Remember(ctx, CachePrefixFacets+":projects", facets, func(ctx context.Context) (interface{}, error) {
		s.metrics.RecordAggregateLoad("project_facets")

		out := &ProjectFacets{Amenities: models.ProjectAmenities}
		var err error
		if out.Cities, err = s.projectRepo.DistinctValuesAndCounts(ctx, "city", query.PublishedProjects, 0); err != nil {
			return nil, err
		}
		if out.Districts, err = s.projectRepo.DistinctValuesAndCounts(ctx, "district", query.PublishedProjects, 0); err != nil {
			return nil, err
		}
		if out.Statuses, err = s.projectRepo.DistinctValuesAndCounts(ctx, "status", query.PublishedProjects, 0); err != nil {
			return nil, err
		}
		if out.StartingPriceRange, err = s.projectRepo.NumericRange(ctx, "starting_price", query.PublishedProjects, true); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return facets, nil
}

// Cities counts publicly visible properties per city, most first.
func (s *FacetService) Cities(ctx context.Context) ([]models.ValueCount, error) {
	return s.valueCounts(ctx, "city")
}

func (s *FacetService) PropertyTypes(ctx context.Context) ([]models.ValueCount, error) {
	return s.valueCounts(ctx, "type")
}

func (s *FacetService) valueCounts(ctx context.Context, field string) ([]models.ValueCount, error) {
	var values []models.ValueCount
	err := s.cache.Remember(ctx, CachePrefixFacets+":"+field, &values, func(ctx context.Context) (interface{}, error) {
		s.metrics.RecordAggregateLoad(field)
		return s.propertyRepo.DistinctValuesAndCounts(ctx, field, query.PublicProperties, 0)
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
