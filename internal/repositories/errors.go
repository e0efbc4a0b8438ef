package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/nestify/discovery/pkg/logger"
)

var (
	// ErrNotFound covers both absent rows and rows hidden by the scope.
	ErrNotFound = errors.New("listing not found")

	// ErrStoreUnavailable is a retryable infrastructure failure. It is never
	// returned for an empty result.
	ErrStoreUnavailable = errors.New("listing store unavailable")

	ErrDuplicate = errors.New("record already exists")
)

// handleError translates driver errors into the repository taxonomy.
func handleError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %v", op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		if pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %v", op, err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	logger.WithError(err).WithField("op", op).Errorf("Listing store failure")
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
