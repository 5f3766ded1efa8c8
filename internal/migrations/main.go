package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/floodcast/hydrofetch/internal/models"
)

var Migrations = migrate.NewMigrations()

func init() {
	// Migration 1: create tables
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		modelsList := []interface{}{
			(*models.DataSource)(nil),
			(*models.DownloadRun)(nil),
			(*models.Artifact)(nil),
		}

		for _, model := range modelsList {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		modelsList := []interface{}{
			(*models.Artifact)(nil),
			(*models.DownloadRun)(nil),
			(*models.DataSource)(nil),
		}

		for _, model := range modelsList {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})

	// Migration 2: indexes
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_artifacts_source_cycle ON artifacts(source, cycle)",
			"CREATE INDEX IF NOT EXISTS idx_artifacts_outcome ON artifacts(outcome)",
			"CREATE INDEX IF NOT EXISTS idx_artifacts_updated_at ON artifacts(updated_at)",
			"CREATE INDEX IF NOT EXISTS idx_runs_source_start ON download_runs(source, start_time DESC)",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"DROP INDEX IF EXISTS idx_artifacts_source_cycle",
			"DROP INDEX IF EXISTS idx_artifacts_outcome",
			"DROP INDEX IF EXISTS idx_artifacts_updated_at",
			"DROP INDEX IF EXISTS idx_runs_source_start",
		}

		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}

		return nil
	})
}

// RunMigrations runs all pending migrations.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		return nil
	}

	fmt.Printf("Migrated catalog to %s\n", group)
	return nil
}
