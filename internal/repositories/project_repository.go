package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
)

const projectFrom = "FROM projects pj"

const projectColumns = `pj.id, pj.promoter_id, pj.name, pj.slug, pj.description, pj.city, pj.district,
	pj.address, pj.status, pj.total_units, pj.available_units, pj.starting_price, pj.amenities,
	pj.tags, pj.cover_image, pj.images, pj.views, pj.is_published, pj.published_at,
	pj.created_at, pj.updated_at`

var (
	projectGroupFields = map[string]string{
		"city":     query.ProjectCity,
		"district": query.ProjectDistrict,
		"status":   query.ProjectStatus,
	}
	projectNumericFields = map[string]string{
		"starting_price":  query.ProjectPrice,
		"available_units": query.ProjectAvailable,
	}
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{
		db: db,
	}
}

func (r *ProjectRepository) Query(ctx context.Context, q query.Query) ([]*models.Project, int, error) {
	total, err := r.Count(ctx, q.Where)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Project{}, 0, nil
	}

	items, err := r.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProjectRepository) List(ctx context.Context, q query.Query) ([]*models.Project, error) {
	where, args := query.Where(q.Where)
	page, args := pageClause(q, args)

	sqlText := fmt.Sprintf("SELECT %s %s WHERE %s %s %s", projectColumns, projectFrom, where, q.OrderClause(), page)

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, handleError("list projects", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, handleError("list projects", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, handleError("list projects", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Count(ctx context.Context, where query.Predicate) (int, error) {
	return count(ctx, r.db, projectFrom, where)
}

func (r *ProjectRepository) FindVisibleByID(ctx context.Context, id int64, base query.Predicate) (*models.Project, error) {
	return r.findOne(ctx, query.And(base, query.Eq(query.ProjectID, id)))
}

func (r *ProjectRepository) FindVisibleBySlug(ctx context.Context, slug string, base query.Predicate) (*models.Project, error) {
	return r.findOne(ctx, query.And(base, query.Eq("pj.slug", slug)))
}

func (r *ProjectRepository) findOne(ctx context.Context, where query.Predicate) (*models.Project, error) {
	items, err := r.List(ctx, query.Query{Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

// SlugTaken reports whether another project already uses slug.
func (r *ProjectRepository) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE slug = $1 AND id <> $2`, slug, exceptID).Scan(&n)
	if err != nil {
		return false, handleError("slug lookup", err)
	}
	return n > 0, nil
}

// ListIDs returns every project id, published or not.
func (r *ProjectRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, handleError("list project ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, handleError("list project ids", err)
		}
		ids = append(ids, id)
	}
	return ids, handleError("list project ids", rows.Err())
}

func (r *ProjectRepository) DistinctValuesAndCounts(ctx context.Context, field string, base query.Predicate, limit int) ([]models.ValueCount, error) {
	expr, ok := projectGroupFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return distinctValuesAndCounts(ctx, r.db, projectFrom, expr, base, limit)
}

func (r *ProjectRepository) NumericRange(ctx context.Context, field string, base query.Predicate, positiveOnly bool) (models.NumericRange, error) {
	column, ok := projectNumericFields[field]
	if !ok {
		return models.NumericRange{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return numericRange(ctx, r.db, projectFrom, column, base, positiveOnly)
}

func (r *ProjectRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE projects SET views = views + 1 WHERE id = $1`, id)
	return handleError("increment project views", err)
}

// Create inserts the project with its amenity and tag rows.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return handleError("create project", err)
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO projects (
			promoter_id, name, slug, description, city, district, address, status,
			total_units, available_units, starting_price, amenities, tags, cover_image, images,
			views, is_published, published_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`

	err = tx.QueryRowContext(ctx, insert,
		project.PromoterID,
		project.Name,
		project.Slug,
		project.Description,
		project.City,
		project.District,
		project.Address,
		string(project.Status),
		project.TotalUnits,
		project.AvailableUnits,
		project.StartingPrice,
		project.Amenities,
		project.Tags,
		project.CoverImage,
		project.Images,
		project.Views,
		project.IsPublished,
		project.PublishedAt,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID)
	if err != nil {
		return handleError("create project", err)
	}

	if err := r.syncSets(ctx, tx, project); err != nil {
		return handleError("create project", err)
	}
	return handleError("create project", tx.Commit())
}

// Update rewrites the editable fields. Unit counts and publication state
// have their own methods.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return handleError("update project", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, slug = $2, description = $3, city = $4, district = $5, address = $6,
			status = $7, amenities = $8, tags = $9, cover_image = $10, images = $11, updated_at = $12
		WHERE id = $13
	`,
		project.Name,
		project.Slug,
		project.Description,
		project.City,
		project.District,
		project.Address,
		string(project.Status),
		project.Amenities,
		project.Tags,
		project.CoverImage,
		project.Images,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return handleError("update project", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return handleError("update project", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := r.syncSets(ctx, tx, project); err != nil {
		return handleError("update project", err)
	}
	return handleError("update project", tx.Commit())
}

// SetPublished sets is_published and published_at together.
func (r *ProjectRepository) SetPublished(ctx context.Context, id int64, publishedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET is_published = $1, published_at = $2, updated_at = $3 WHERE id = $4
	`, publishedAt != nil, publishedAt, time.Now().UTC(), id)
	if err != nil {
		return handleError("set published", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return handleError("set published", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecomputeUnitCounts derives the unit counters and starting price from
// the project's properties and stores them.
func (r *ProjectRepository) RecomputeUnitCounts(ctx context.Context, id int64) (models.UnitCounts, error) {
	var (
		counts   models.UnitCounts
		minPrice sql.NullFloat64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN availability_status = 'available' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN availability_status = 'sold' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN availability_status = 'reserved' THEN 1 ELSE 0 END), 0),
			MIN(CASE WHEN availability_status = 'available' THEN price END)
		FROM properties
		WHERE project_id = $1
	`, id).Scan(&counts.Total, &counts.Available, &counts.Sold, &counts.Reserved, &minPrice)
	if err != nil {
		return counts, handleError("recount units", err)
	}
	counts.StartingPrice = minPrice.Float64

	result, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET total_units = $1, available_units = $2, starting_price = $3, updated_at = $4
		WHERE id = $5
	`, counts.Total, counts.Available, counts.StartingPrice, time.Now().UTC(), id)
	if err != nil {
		return counts, handleError("recount units", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return counts, handleError("recount units", err)
	}
	if rowsAffected == 0 {
		return counts, ErrNotFound
	}
	return counts, nil
}

func (r *ProjectRepository) syncSets(ctx context.Context, tx *sql.Tx, project *models.Project) error {
	project.Amenities = models.NewStringSet(project.Amenities...)
	project.Tags = models.NewStringSet(project.Tags...)

	if err := replaceSet(ctx, tx, "project_amenities", "project_id", "amenity", project.ID, project.Amenities); err != nil {
		return err
	}
	return replaceSet(ctx, tx, "project_tags", "project_id", "tag", project.ID, project.Tags)
}

func scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	var (
		status      string
		publishedAt sql.NullTime
	)

	err := row.Scan(
		&project.ID,
		&project.PromoterID,
		&project.Name,
		&project.Slug,
		&project.Description,
		&project.City,
		&project.District,
		&project.Address,
		&status,
		&project.TotalUnits,
		&project.AvailableUnits,
		&project.StartingPrice,
		&project.Amenities,
		&project.Tags,
		&project.CoverImage,
		&project.Images,
		&project.Views,
		&project.IsPublished,
		&publishedAt,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	project.Status = models.ProjectStatus(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		project.PublishedAt = &t
	}
	return project, nil
}
