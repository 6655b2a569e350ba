package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/zauberjournal/journal-api/pkg/config"
	"github.com/zauberjournal/journal-api/pkg/db"
	"github.com/zauberjournal/journal-api/pkg/logger"
)

// AutoMigrate brings the schema in dir up to date at startup. It only runs
// when ZJ_AUTO_MIGRATE is set and the environment is not prod, and refuses
// to touch the database when any migration file is malformed.
func AutoMigrate(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client, dir string) error {
	if cfg.App.IsProd() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	if err := ValidateDir(dir); err != nil {
		return fmt.Errorf("refusing to auto-migrate: %w", err)
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	if err := setDialect(client.Dialect()); err != nil {
		return err
	}
	before, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	if err := Run(ctx, sqlDB, client.Dialect(), dir, "up"); err != nil {
		return err
	}

	after, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"dialect": client.Dialect(),
			"from":    before,
			"to":      after,
		}), "schema auto-migrated")
	}
	return nil
}
