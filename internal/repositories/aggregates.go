package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nestify/discovery/internal/models"
	"github.com/nestify/discovery/internal/query"
)

// ErrUnknownField is returned when an aggregate is requested on a field
// outside the repository's allow-list.
var ErrUnknownField = errors.New("unknown aggregate field")

// distinctValuesAndCounts groups the rows matching where by expr, most
// frequent first. Empty values are skipped. limit <= 0 means no limit.
func distinctValuesAndCounts(ctx context.Context, db *sql.DB, from, expr string, where query.Predicate, limit int) ([]models.ValueCount, error) {
	clause, args := query.Where(query.And(where, query.Raw(expr+" <> ''")))

	sqlText := fmt.Sprintf(`
		SELECT %s AS facet_value, COUNT(*) AS facet_count
		%s
		WHERE %s
		GROUP BY %s
		ORDER BY facet_count DESC, facet_value ASC`, expr, from, clause, expr)
	if limit > 0 {
		sqlText += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, handleError("distinct values", err)
	}
	defer rows.Close()

	values := []models.ValueCount{}
	for rows.Next() {
		var vc models.ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, handleError("distinct values", err)
		}
		values = append(values, vc)
	}

	if err := rows.Err(); err != nil {
		return nil, handleError("distinct values", err)
	}
	return values, nil
}

// numericRange returns min, max and average of column over the matching
// rows. With positiveOnly, values <= 0 are ignored.
func numericRange(ctx context.Context, db *sql.DB, from, column string, where query.Predicate, positiveOnly bool) (models.NumericRange, error) {
	if positiveOnly {
		where = query.And(where, query.Raw(column+" > 0"))
	}
	clause, args := query.Where(where)

	sqlText := fmt.Sprintf(`SELECT MIN(%s), MAX(%s), AVG(%s), COUNT(%s) %s WHERE %s`, column, column, column, column, from, clause)

	var (
		lo, hi, avg sql.NullFloat64
		samples     int
	)
	if err := db.QueryRowContext(ctx, sqlText, args...).Scan(&lo, &hi, &avg, &samples); err != nil {
		return models.NumericRange{}, handleError("numeric range", err)
	}

	return models.NumericRange{Min: lo.Float64, Max: hi.Float64, Avg: avg.Float64, Samples: samples}, nil
}

func count(ctx context.Context, db *sql.DB, from string, where query.Predicate) (int, error) {
	clause, args := query.Where(where)

	var total int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", from, clause), args...).Scan(&total)
	if err != nil {
		return 0, handleError("count", err)
	}
	return total, nil
}

// pageClause appends LIMIT/OFFSET placeholders after args.
func pageClause(q query.Query, args []interface{}) (string, []interface{}) {
	if q.Limit <= 0 {
		return "", args
	}
	clause := fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	return clause, append(args, q.Limit, q.Offset)
}
