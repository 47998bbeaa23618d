package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_teas.up.sql
var teasMigrationSQL string

// EnsureSchema creates the teas table when it is missing. The migration is
// written with IF NOT EXISTS so re-running it is harmless.
func (db *Postgres) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'teas'
		)
	`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check teas table: %w", err)
	}

	if exists {
		return nil
	}

	slog.Info("teas table missing; applying migration 001")
	if _, err := db.Pool.Exec(ctx, teasMigrationSQL); err != nil {
		return fmt.Errorf("apply teas migration: %w", err)
	}

	slog.Info("database schema ensured")
	return nil
}
