package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
)

const propertyFrom = "FROM properties p LEFT JOIN projects pj ON pj.id = p.project_id"

var propertyColumns = `p.id, p.project_id, p.owner_id, p.title, p.description, p.reference, p.type,
	p.price, p.surface, ` + query.PropertyCity + `, ` + query.PropertyDistrict + `, p.address,
	p.bedrooms, p.bathrooms, p.floor, p.parking, p.elevator, p.terrace, p.garden, p.is_vefa,
	p.features, p.availability_status, p.validated, p.views, p.images, p.published_date,
	p.created_at, p.updated_at, COALESCE(pj.name, ''), COALESCE(pj.slug, '')`

// Fields that may be grouped or ranged over.
var (
	propertyGroupFields = map[string]string{
		"city":                query.PropertyCity,
		"district":            query.PropertyDistrict,
		"type":                query.PropertyType,
		"availability_status": query.PropertyStatus,
	}
	propertyNumericFields = map[string]string{
		"price":     query.PropertyPrice,
		"surface":   query.PropertySurface,
		"bedrooms":  query.PropertyBedrooms,
		"bathrooms": query.PropertyBaths,
		"floor":     query.PropertyFloor,
	}
)

type PropertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{
		db: db,
	}
}

// Query returns one page of matches and the total number of matches.
func (r *PropertyRepository) Query(ctx context.Context, q query.Query) ([]*models.Property, int, error) {
	total, err := r.Count(ctx, q.Where)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Property{}, 0, nil
	}

	items, err := r.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// List returns matches without counting them.
func (r *PropertyRepository) List(ctx context.Context, q query.Query) ([]*models.Property, error) {
	where, args := query.Where(q.Where)
	page, args := pageClause(q, args)

	sqlText := fmt.Sprintf("SELECT %s %s WHERE %s %s %s", propertyColumns, propertyFrom, where, q.OrderClause(), page)

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, handleError("list properties", err)
	}
	defer rows.Close()

	properties := []*models.Property{}
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, handleError("list properties", err)
		}
		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		return nil, handleError("list properties", err)
	}
	return properties, nil
}

func (r *PropertyRepository) Count(ctx context.Context, where query.Predicate) (int, error) {
	return count(ctx, r.db, propertyFrom, where)
}

// FindVisibleByID returns the property only if it also satisfies base.
// Hidden and absent properties both yield ErrNotFound.
func (r *PropertyRepository) FindVisibleByID(ctx context.Context, id int64, base query.Predicate) (*models.Property, error) {
	items, err := r.List(ctx, query.Query{
		Where: query.And(base, query.Eq(query.PropertyID, id)),
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (r *PropertyRepository) DistinctValuesAndCounts(ctx context.Context, field string, base query.Predicate, limit int) ([]models.ValueCount, error) {
	expr, ok := propertyGroupFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return distinctValuesAndCounts(ctx, r.db, propertyFrom, expr, base, limit)
}

func (r *PropertyRepository) NumericRange(ctx context.Context, field string, base query.Predicate, positiveOnly bool) (models.NumericRange, error) {
	column, ok := propertyNumericFields[field]
	if !ok {
		return models.NumericRange{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return numericRange(ctx, r.db, propertyFrom, column, base, positiveOnly)
}

// IncrementViews bumps the view counter. Concurrent increments may race.
func (r *PropertyRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE properties SET views = views + 1 WHERE id = $1`, id)
	return handleError("increment views", err)
}

// Create inserts the property and its normalized feature rows.
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	now := time.Now().UTC()
	if property.CreatedAt.IsZero() {
		property.CreatedAt = now
	}
	property.UpdatedAt = now
	property.Features = models.NewStringSet(property.Features...)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return handleError("create property", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO properties (
			project_id, owner_id, title, description, reference, type, price, surface,
			city, district, address, bedrooms, bathrooms, floor,
			parking, elevator, terrace, garden, is_vefa, features,
			availability_status, validated, views, images, published_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, insert,
		property.ProjectID,
		property.OwnerID,
		property.Title,
		property.Description,
		property.Reference,
		string(property.Type),
		property.Price,
		property.Surface,
		property.City,
		property.District,
		property.Address,
		property.Bedrooms,
		property.Bathrooms,
		property.Floor,
		property.Parking,
		property.Elevator,
		property.Terrace,
		property.Garden,
		property.IsVefa,
		property.Features,
		string(property.AvailabilityStatus),
		property.Validated,
		property.Views,
		property.Images,
		property.PublishedDate,
		property.CreatedAt,
		property.UpdatedAt,
	).Scan(&property.ID)
	if err != nil {
		return handleError("create property", err)
	}

	if err := replaceSet(ctx, tx, "property_features", "property_id", "feature", property.ID, property.Features); err != nil {
		return handleError("create property", err)
	}

	return handleError("create property", tx.Commit())
}

// SetValidated toggles public visibility of a property.
func (r *PropertyRepository) SetValidated(ctx context.Context, id int64, validated bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE properties SET validated = $1, updated_at = $2 WHERE id = $3
	`, validated, time.Now().UTC(), id)
	if err != nil {
		return handleError("set validated", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return handleError("set validated", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	property := &models.Property{}
	var (
		projectID     sql.NullInt64
		propertyType  string
		status        string
		publishedDate sql.NullTime
	)

	err := row.Scan(
		&property.ID,
		&projectID,
		&property.OwnerID,
		&property.Title,
		&property.Description,
		&property.Reference,
		&propertyType,
		&property.Price,
		&property.Surface,
		&property.City,
		&property.District,
		&property.Address,
		&property.Bedrooms,
		&property.Bathrooms,
		&property.Floor,
		&property.Parking,
		&property.Elevator,
		&property.Terrace,
		&property.Garden,
		&property.IsVefa,
		&property.Features,
		&status,
		&property.Validated,
		&property.Views,
		&property.Images,
		&publishedDate,
		&property.CreatedAt,
		&property.UpdatedAt,
		&property.ProjectName,
		&property.ProjectSlug,
	)
	if err != nil {
		return nil, err
	}

	property.Type = models.PropertyType(propertyType)
	property.AvailabilityStatus = models.AvailabilityStatus(status)
	if projectID.Valid {
		id := projectID.Int64
		property.ProjectID = &id
	}
	if publishedDate.Valid {
		t := publishedDate.Time
		property.PublishedDate = &t
	}
	return property, nil
}

// replaceSet rewrites the normalized rows backing a JSON set column.
func replaceSet(ctx context.Context, tx *sql.Tx, table, keyColumn, valueColumn string, id int64, values []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, keyColumn), id); err != nil {
		return err
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)", table, keyColumn, valueColumn)
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, insert, id, v); err != nil {
			return err
		}
	}
	return nil
}
