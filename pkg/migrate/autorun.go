package migrate

import (
	"context"
	"fmt"

	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

// ShouldAutoRun reports whether processes may migrate on boot. The sqlite
// store has no separate migrate step, so it always qualifies; postgres only
// in dev with the auto-migrate flag on.
func ShouldAutoRun(cfg *config.Config, client *db.Client) bool {
	if client == nil {
		return false
	}
	return client.IsSQLite() || (cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate)
}

// MaybeRun applies the embedded migrations when ShouldAutoRun allows it and
// logs the version transition.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg, client) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	dialect := client.Dialect()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})

	before, err := Version(ctx, sqlDB, dialect)
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, dialect, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	after, err := Version(ctx, sqlDB, dialect)
	if err != nil {
		return err
	}

	if before == after {
		logg.Debug(ctx, "schema already current")
		return nil
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"from_version": before, "to_version": after}), "schema migrated")
	return nil
}
