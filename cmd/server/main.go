package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nestify/discovery/internal/handlers"
	"github.com/nestify/discovery/internal/metrics"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/internal/services"
	"github.com/nestify/discovery/internal/workers"
	"github.com/nestify/discovery/pkg/cache"
	"github.com/nestify/discovery/pkg/config"
	"github.com/nestify/discovery/pkg/database"
	"github.com/nestify/discovery/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init()
	gin.SetMode(config.AppConfig.Server.Mode)

	if err := database.Init(config.AppConfig.Database); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	listingCache, closeCache := cache.New(config.AppConfig.Redis)
	defer closeCache()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	// Repositories
	propertyRepo := repositories.NewPropertyRepository(database.DB)
	projectRepo := repositories.NewProjectRepository(database.DB)

	// Services
	listingService := services.NewListingService(propertyRepo, projectRepo, m)
	facetService := services.NewFacetService(propertyRepo, projectRepo, listingCache, m)
	projectService := services.NewProjectService(projectRepo, listingCache, m)
	presenter := handlers.NewPresenter(services.NewImageResolver(config.AppConfig.Storage.PublicURL))

	workerManager := workers.NewWorkerManager()
	workerManager.Add(workers.NewRecountWorker("recount-1", projectService, config.AppConfig.Workers.RecountInterval))

	router := handlers.NewRouter(handlers.Handlers{
		Property: handlers.NewPropertyHandler(
			listingService,
			facetService,
			services.NewSuggestionService(propertyRepo, m),
			services.NewSimilarityService(propertyRepo, m),
			services.NewStatisticsService(propertyRepo, listingCache, m),
			services.NewExportService(propertyRepo),
			services.NewModerationService(propertyRepo, listingCache),
			presenter,
		),
		Project:   handlers.NewProjectHandler(listingService, projectService, facetService, presenter),
		Discovery: handlers.NewDiscoveryHandler(listingService, facetService, presenter),
		Health:    handlers.NewHealthHandler(database.DB, workerManager),
		NotFound:  handlers.NewNotFoundHandler(),
	}, handlers.RouterOptions{
		SessionSecret: config.AppConfig.Session.Secret,
		QueryTimeout:  config.AppConfig.Server.QueryTimeout,
		Metrics:       m,
		Gatherer:      registry,
	})

	workerManager.StartAll()
	defer workerManager.StopAll()

	server := &http.Server{
		Addr:         ":" + config.AppConfig.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(config.AppConfig.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.AppConfig.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Infof("Server starting on :%s", config.AppConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Warnf("Server shutdown did not complete")
	}
	logger.Info("Server stopped")
}
