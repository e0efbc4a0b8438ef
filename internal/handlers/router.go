package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/middleware"
)

type Handlers struct {
	Property  *PropertyHandler
	Project   *ProjectHandler
	Discovery *DiscoveryHandler
	Health    *HealthHandler
	NotFound  *NotFoundHandler
}

type RouterOptions struct {
	SessionSecret string
	QueryTimeout  time.Duration
	Metrics       *metrics.Metrics
	// Gatherer backs /metrics. The route is skipped when nil.
	Gatherer prometheus.Gatherer
}

func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(middleware.SessionMiddleware(opts.SessionSecret))

	router.GET("/health", h.Health.HealthCheck)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/")
	api.Use(middleware.QueryTimeout(opts.QueryTimeout))

	properties := api.Group("/properties")
	{
		properties.GET("", h.Property.List)
		properties.GET("/suggestions", h.Property.Suggestions)
		properties.GET("/filter-options", h.Property.FilterOptions)
		properties.GET("/statistics", h.Property.Statistics)
		properties.GET("/export", h.Property.Export)
		properties.GET("/:id", h.Property.Show)
		properties.GET("/:id/similar", h.Property.Similar)
	}

	projects := api.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.GET("/filter-options", h.Project.FilterOptions)
		projects.GET("/:id", h.Project.Show)
		projects.GET("/:id/properties", h.Project.Properties)
	}

	api.GET("/filters/options", h.Discovery.FilterOptions)
	api.GET("/cities", h.Discovery.Cities)
	api.GET("/property-types", h.Discovery.PropertyTypes)
	api.GET("/search", h.Discovery.Search)

	me := api.Group("/me")
	me.Use(middleware.AuthRequired())
	{
		me.GET("/properties", h.Property.MyProperties)
		me.GET("/projects", h.Project.MyProjects)
		me.PUT("/projects/:id", h.Project.Update)
		me.PATCH("/projects/:id/publish", h.Project.SetPublished)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/properties", h.Property.AdminProperties)
		admin.PATCH("/properties/:id/validate", h.Property.SetValidated)
		admin.POST("/projects/:id/recount", h.Project.Recount)
	}

	router.NoRoute(h.NotFound.NotFound)

	return router
}
