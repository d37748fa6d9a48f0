package postgres

import (
	"context"
	"database/sql"
	"embed"

	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrate applies every pending embedded migration
func Migrate(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to configure migrations").
			Mark(ierr.ErrDatabase)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply database migrations").
			Mark(ierr.ErrDatabase)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err == nil {
		log.Infow("database migrations applied", "version", version)
	}
	return nil
}

// Rollback reverts the most recent migration
func Rollback(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to roll back database migration").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Status logs applied and pending migrations
func Status(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read migration status").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
