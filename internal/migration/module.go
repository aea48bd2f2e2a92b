package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/config"
)

// Module applies pending migrations on boot when AUTO_MIGRATE is set.
var Module = fx.Module("migrations",
	fx.Invoke(migrateOnBoot),
)

func migrateOnBoot(cfg *config.Config, logger *zap.Logger) error {
	if !cfg.AutoMigrate {
		logger.Info("auto migrate disabled")
		return nil
	}
	applied, err := Up(cfg.DatabaseURI)
	if err != nil {
		return err
	}
	logger.Info("database schema ready", zap.Bool("applied", applied))
	return nil
}
