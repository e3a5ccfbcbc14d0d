package migrate

import (
	"context"
	"fmt"

	"github.com/handcar/handcar-backend/pkg/config"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/logger"
)

// MaybeRunDev migrates on boot when HANDCAR_DB_AUTO_MIGRATE is set outside prod.
// Postgres runs the embedded goose migrations; sqlite uses gorm AutoMigrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return fmt.Errorf("config and db client are required")
	}
	if cfg.App.IsProd() || !cfg.DB.AutoMigrate {
		return nil
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
		logg.Info(ctx, "running migrations (dev auto-run)")
	}

	if cfg.DB.Driver == config.DBDriverSQLite {
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migrating sqlite: %w", err)
		}
	} else {
		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("extracting sql.DB: %w", err)
		}
		runner, err := NewRunner(sqlDB, Embedded(), nil)
		if err != nil {
			return err
		}
		applied, err := runner.Up(ctx)
		if err != nil {
			return fmt.Errorf("running goose up: %w", err)
		}
		if logg != nil {
			ctx = logg.WithField(ctx, "applied", applied)
		}
	}

	if logg != nil {
		logg.Info(ctx, "migrations completed")
	}
	return nil
}
