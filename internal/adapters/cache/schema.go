package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the geocode cache table. dialectName is "postgres" or "sqlite".
func InitSchema(db *sql.DB, dialectName string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch dialectName {
	case "postgres":
		statements = []string{`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			query TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			updated_at BIGINT NOT NULL
		);
		`, `
		CREATE INDEX IF NOT EXISTS idx_geocode_cache_updated_at
		ON geocode_cache(updated_at);
		`}
	case "sqlite":
		statements = []string{`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			query TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			lon REAL NOT NULL,
			lat REAL NOT NULL,
			updated_at INTEGER NOT NULL
		);
		`, `
		CREATE INDEX IF NOT EXISTS idx_geocode_cache_updated_at
		ON geocode_cache(updated_at);
		`}
	default:
		return fmt.Errorf("init schema: unknown dialect %q", dialectName)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
