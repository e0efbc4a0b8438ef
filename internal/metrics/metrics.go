package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the discovery collectors. A nil *Metrics records nothing.
type Metrics struct {
	// Discovery
	Searches           *prometheus.CounterVec // listing queries by kind (properties, projects, global)
	SearchResults      *prometheus.HistogramVec
	EmptySearches      *prometheus.CounterVec
	Suggestions        prometheus.Counter
	SimilarLookups     prometheus.Counter
	ViewIncrementFails *prometheus.CounterVec
	CacheLoads         *prometheus.CounterVec // aggregate payloads computed from the store, by name
	UnitRecounts       *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_searches_total",
				Help: "Total number of listing queries by kind",
			},
			[]string{"kind"},
		),

		SearchResults: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "discovery_search_results",
				Help:    "Total matches per listing query",
				Buckets: []float64{0, 1, 5, 12, 50, 100, 500, 1000},
			},
			[]string{"kind"},
		),

		EmptySearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_empty_searches_total",
				Help: "Listing queries that matched nothing",
			},
			[]string{"kind"},
		),

		Suggestions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "discovery_suggestions_total",
				Help: "Autocomplete requests that reached the store",
			},
		),

		SimilarLookups: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "discovery_similar_lookups_total",
				Help: "Similar-property lookups",
			},
		),

		ViewIncrementFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_view_increment_failures_total",
				Help: "View counter updates that failed",
			},
			[]string{"kind"},
		),

		CacheLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_aggregate_loads_total",
				Help: "Aggregate payloads computed from the store",
			},
			[]string{"name"},
		),

		UnitRecounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discovery_unit_recounts_total",
				Help: "Project unit recounts by outcome",
			},
			[]string{"status"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
	}
}

// RecordSearch counts a listing query and the size of its result set.
func (m *Metrics) RecordSearch(kind string, total int) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(kind).Inc()
	m.SearchResults.WithLabelValues(kind).Observe(float64(total))
	if total == 0 {
		m.EmptySearches.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RecordSuggestion() {
	if m == nil {
		return
	}
	m.Suggestions.Inc()
}

func (m *Metrics) RecordSimilarLookup() {
	if m == nil {
		return
	}
	m.SimilarLookups.Inc()
}

func (m *Metrics) RecordViewIncrementFailure(kind string) {
	if m == nil {
		return
	}
	m.ViewIncrementFails.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordAggregateLoad(name string) {
	if m == nil {
		return
	}
	m.CacheLoads.WithLabelValues(name).Inc()
}

// RecordUnitRecount takes "success" or "failure".
func (m *Metrics) RecordUnitRecount(status string) {
	if m == nil {
		return
	}
	m.UnitRecounts.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusClass(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// statusClass keeps common codes exact and groups the rest by class.
func statusClass(code int) string {
	switch code {
	case 200, 201, 204, 400, 401, 403, 404, 500, 503:
		return strconv.Itoa(code)
	}
	if code >= 100 && code < 600 {
		return strconv.Itoa(code/100) + "xx"
	}
	return "unknown"
}
