package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrationStep is one versioned schema change. Steps are applied in order
// inside a transaction and recorded in schema_migrations, so reopening an
// already-migrated database only applies what is missing.
type migrationStep struct {
	version    int
	name       string
	statements []string
}

var migrationSteps = []migrationStep{
	{
		version: 1,
		name:    "create events table",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				start_at TEXT NOT NULL,
				end_at TEXT NOT NULL,
				color TEXT,
				notes TEXT,
				CHECK (start_at < end_at)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_start_at ON events(start_at)`,
		},
	},
}

// Migrate brings the database schema up to the current version.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations table: %w", err)
	}

	var current int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for _, step := range migrationSteps {
		if step.version <= current {
			continue
		}

		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, statement := range step.statements {
				if _, err := tx.Exec(statement); err != nil {
					return fmt.Errorf("apply statement: %w", err)
				}
			}
			_, err := tx.Exec(
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				step.version, step.name, time.Now().UTC().Format(time.RFC3339),
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("sqlite: migration %d (%s): %w", step.version, step.name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (cp *ConnectionPool) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("sqlite: read schema version: %w", err)
	}
	return version, nil
}
