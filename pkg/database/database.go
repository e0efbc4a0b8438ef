package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"time"

	"github.com/nestify/discovery/pkg/config"
	"github.com/nestify/discovery/pkg/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

var DB *sql.DB

// Init opens the configured store, tunes it and applies the schema.
func Init(cfg config.DatabaseConfig) error {
	var err error

	DB, err = Open(cfg)
	if err != nil {
		return err
	}

	// Test the connection
	if err = DB.Ping(); err != nil {
		return err
	}

	if cfg.Driver == DriverSQLite {
		if err = optimizeSQLite(DB); err != nil {
			return err
		}
		logger.Info("Database connected successfully with WAL mode")
	} else {
		logger.Info("Database connected successfully")
	}

	return Migrate(DB, cfg.Driver)
}

// Open returns a pooled handle without touching the schema.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err := sql.Open(DriverSQLite, cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_foreign_keys=ON&_busy_timeout=30000")
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(time.Hour)
		return db, nil
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for driver %q", cfg.Driver)
		}
		db, err := sql.Open(DriverPostgres, cfg.URL)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(time.Hour)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenMemory returns a migrated in-memory sqlite store. A single connection
// keeps every caller on the same database.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, "file::memory:?_foreign_keys=ON")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := Migrate(db, DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// optimizeSQLite configures SQLite for optimal performance
func optimizeSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=30000",
		"PRAGMA mmap_size=268435456", // 256MB
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Migrate executes the embedded SQL scripts for driver in file name order.
// Scripts are written to be re-runnable.
func Migrate(db *sql.DB, driver string) error {
	dir := "migrations/sqlite"
	if driver == DriverPostgres {
		dir = "migrations/postgres"
	}

	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if path.Ext(entry.Name()) == ".sql" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrations.ReadFile(path.Join(dir, name))
		if err != nil {
			return err
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}

		logger.Debugf("Executed SQL script: %s", name)
	}

	return nil
}
