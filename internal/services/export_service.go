package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nestify/discovery/internal/filters"
	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
	"github.com/nestify/discovery/internal/repositories"
	"github.com/nestify/discovery/pkg/logger"
)

// MaxExportRows caps a spreadsheet export.
const MaxExportRows = 1000

const exportSheet = "Biens"

var exportHeader = []interface{}{
	"ID", "Référence", "Titre", "Type", "Prix", "Surface (m²)", "Ville", "Quartier",
	"Chambres", "Salles de bain", "Étage", "Disponibilité", "Projet", "Caractéristiques", "Publié le",
}

type ExportService struct {
	propertyRepo *repositories.PropertyRepository
}

func NewExportService(propertyRepo *repositories.PropertyRepository) *ExportService {
	return &ExportService{
		propertyRepo: propertyRepo,
	}
}

// ExportProperties writes the publicly visible properties matching f as an
// XLSX workbook. Pagination of f is ignored; at most MaxExportRows rows are
// written, in the requested order.
func (s *ExportService) ExportProperties(ctx context.Context, f filters.PropertyFilter, w io.Writer) (int, error) {
	q := query.ComposeProperties(f, query.Public())
	q.Limit = MaxExportRows
	q.Offset = 0

	properties, err := s.propertyRepo.List(ctx, q)
	if err != nil {
		return 0, err
	}

	file, err := buildWorkbook(properties)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warnf("Failed to close export workbook")
		}
	}()

	if _, err := file.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(properties), nil
}

func buildWorkbook(properties []*models.Property) (*excelize.File, error) {
	file := excelize.NewFile()
	if err := fillWorkbook(file, properties); err != nil {
		file.Close()
		return nil, fmt.Errorf("build export: %w", err)
	}
	return file, nil
}

func fillWorkbook(file *excelize.File, properties []*models.Property) error {
	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	if err := file.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}

	for i, p := range properties {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		published := ""
		if p.PublishedDate != nil {
			published = p.PublishedDate.Format("2006-01-02")
		}

		row := []interface{}{
			p.ID, p.Reference, p.Title, string(p.Type), p.Price, p.Surface, p.City, p.District,
			p.Bedrooms, p.Bathrooms, p.Floor, string(p.AvailabilityStatus), p.ProjectName,
			strings.Join(p.Features, ", "), published,
		}
		if err := file.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	return file.SetColWidth(exportSheet, "C", "C", 40)
}
