package services

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
)

const (
	MinSuggestionLength = 2
	maxCitySuggestions  = 5
	maxTitleSuggestions = 3
	maxSuggestions      = 10
)

const (
	SuggestionTypeCity     = "city"
	SuggestionTypeProperty = "property"
)

type SuggestionService struct {
	propertyRepo *repositories.PropertyRepository
	metrics      *metrics.Metrics
}

func NewSuggestionService(propertyRepo *repositories.PropertyRepository, m *metrics.Metrics) *SuggestionService {
	return &SuggestionService{
		propertyRepo: propertyRepo,
		metrics:      m,
	}
}

// Suggest returns matching cities first, then matching property titles.
// Terms shorter than MinSuggestionLength characters yield no suggestions.
func (s *SuggestionService) Suggest(ctx context.Context, term string) ([]models.Suggestion, error) {
	term = strings.TrimSpace(term)
	suggestions := []models.Suggestion{}
	if utf8.RuneCountInString(term) < MinSuggestionLength {
		return suggestions, nil
	}
	s.metrics.RecordSuggestion()

	cities, err := s.propertyRepo.DistinctValuesAndCounts(ctx, "city",
		query.And(query.PublicProperties, query.AnyLike{Columns: []string{query.PropertyCity}, Term: term}),
		maxCitySuggestions)
	if err != nil {
		return nil, err
	}
	for _, c := range cities {
		suggestions = append(suggestions, models.Suggestion{
			Type:  SuggestionTypeCity,
			Value: c.Value,
			Label: c.Value + " (Ville)",
		})
	}

	properties, err := s.propertyRepo.List(ctx, query.Query{
		Where:   query.And(query.PublicProperties, query.AnyLike{Columns: []string{query.PropertyTitle}, Term: term}),
		OrderBy: query.DefaultPropertyOrder(),
		Limit:   maxTitleSuggestions,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range properties {
		suggestions = append(suggestions, models.Suggestion{
			Type:  SuggestionTypeProperty,
			Value: strconv.FormatInt(p.ID, 10),
			Label: p.Title + " - " + p.City,
		})
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}
