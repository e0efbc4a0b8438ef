package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/middleware"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/internal/services"
	"github.com/nestify/discovery/pkg/cache"
	"github.com/nestify/discovery/pkg/database"
)

const testSecret = "test-secret"

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router     *gin.Engine
	db         *sql.DB
	properties *repositories.PropertyRepository
	projects   *repositories.ProjectRepository
	metrics    *metrics.Metrics
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)
	propertyRepo := repositories.NewPropertyRepository(db)
	projectRepo := repositories.NewProjectRepository(db)

	listingService := services.NewListingService(propertyRepo, projectRepo, m)
	facetService := services.NewFacetService(propertyRepo, projectRepo, cache.Noop{}, m)
	presenter := NewPresenter(services.NewImageResolver("https://cdn.example.com/storage"))

	router := NewRouter(Handlers{
		Property: NewPropertyHandler(
			listingService,
			facetService,
			services.NewSuggestionService(propertyRepo, m),
			services.NewSimilarityService(propertyRepo, m),
			services.NewStatisticsService(propertyRepo, cache.Noop{}, m),
			services.NewExportService(propertyRepo),
			services.NewModerationService(propertyRepo, cache.Noop{}),
			presenter,
		),
		Project:   NewProjectHandler(listingService, services.NewProjectService(projectRepo, cache.Noop{}, m), facetService, presenter),
		Discovery: NewDiscoveryHandler(listingService, facetService, presenter),
		Health:    NewHealthHandler(db, workerStatus{"recount-1": true}),
		NotFound:  NewNotFoundHandler(),
	}, RouterOptions{
		SessionSecret: testSecret,
		QueryTimeout:  5 * time.Second,
		Metrics:       m,
		Gatherer:      registry,
	})

	return &testServer{
		router:     router,
		db:         db,
		properties: propertyRepo,
		projects:   projectRepo,
		metrics:    m,
	}
}

// property inserts a validated, available Appartement in Tunis priced
// 200000 unless mutate says otherwise.
func (s *testServer) property(t *testing.T, mutate func(p *models.Property)) *models.Property {
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
	require.NoError(t, s.properties.Create(context.Background(), p))
	return p
}

func (s *testServer) project(t *testing.T, mutate func(p *models.Project)) *models.Project {
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
	require.NoError(t, s.projects.Create(context.Background(), p))
	return p
}

type workerStatus map[string]bool

func (w workerStatus) GetWorkerStatus() map[string]bool { return w }

type requestOption func(r *http.Request)

func withSession(t *testing.T, userID int64, role string) requestOption {
	t.Helper()
	value, err := middleware.EncodeSession(middleware.SessionData{
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}, testSecret)
	require.NoError(t, err)

	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "session", Value: value})
	}
}

func (s *testServer) do(method, path string, opts ...requestOption) *httptest.ResponseRecorder {
	return s.send(httptest.NewRequest(method, path, nil), opts...)
}

func (s *testServer) doJSON(method, path, body string, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, opts...)
}

func (s *testServer) send(req *http.Request, opts ...requestOption) *httptest.ResponseRecorder {
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

type listBody struct {
	Data           []PropertyView         `json:"data"`
	Pagination     Pagination             `json:"pagination"`
	FiltersApplied map[string]interface{} `json:"filters_applied"`
}

func viewIDs(views []PropertyView) []int64 {
	out := make([]int64, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}
