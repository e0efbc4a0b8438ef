package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/internal/services"
	"github.com/nestify/discovery/pkg/cache"
	"github.com/nestify/discovery/pkg/config"
	"github.com/nestify/discovery/pkg/database"
	"github.com/nestify/discovery/pkg/logger"
)

//go:embed fixtures.json
var defaultFixtures []byte

// seedProperty links a property to its project by slug.
type seedProperty struct {
	models.Property
	ProjectSlug string `json:"project_slug"`
}

type fixtures struct {
	Projects   []*models.Project `json:"projects"`
	Properties []*seedProperty   `json:"properties"`
}

func main() {
	path := flag.String("file", "", "JSON fixture file; the bundled demo data when empty")
	flag.Parse()

	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init()

	if err := database.Init(config.AppConfig.Database); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	data := defaultFixtures
	if *path != "" {
		var err error
		if data, err = os.ReadFile(*path); err != nil {
			logger.Fatalf("Failed to read fixtures: %v", err)
		}
	}

	listingCache, closeCache := cache.New(config.AppConfig.Redis)
	defer closeCache()

	if err := seed(context.Background(), data, listingCache); err != nil {
		logger.Fatalf("Seeding failed: %v", err)
	}
}

func seed(ctx context.Context, data []byte, c cache.Cache) error {
	var f fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	projectService := services.NewProjectService(repositories.NewProjectRepository(database.DB), c, nil)
	propertyRepo := repositories.NewPropertyRepository(database.DB)

	projectIDs := make(map[string]int64, len(f.Projects))
	for _, project := range f.Projects {
		wanted := project.Slug
		if err := projectService.CreateProject(ctx, project); err != nil {
			return fmt.Errorf("project %q: %w", project.Name, err)
		}
		if wanted != "" {
			projectIDs[wanted] = project.ID
		}
		projectIDs[project.Slug] = project.ID
	}

	for _, sp := range f.Properties {
		property := sp.Property
		if sp.ProjectSlug != "" {
			id, ok := projectIDs[sp.ProjectSlug]
			if !ok {
				return fmt.Errorf("property %q: unknown project %q", property.Title, sp.ProjectSlug)
			}
			property.ProjectID = &id
		}
		if err := property.Validate(); err != nil {
			return fmt.Errorf("property %q: %w", property.Title, err)
		}
		if err := propertyRepo.Create(ctx, &property); err != nil {
			return fmt.Errorf("property %q: %w", property.Title, err)
		}
	}

	recounted, err := projectService.RecomputeAll(ctx)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"projects":   len(f.Projects),
		"properties": len(f.Properties),
		"recounted":  recounted,
	}).Info("Seed data loaded")
	return nil
}
