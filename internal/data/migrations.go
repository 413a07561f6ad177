package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/jobstatus/internal/migrate"
)

// RunMigrations applies the jobs schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	return migrate.Apply(ctx, db, logger)
}
