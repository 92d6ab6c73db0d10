package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		log = log.Named("migration")
		if cfg.DBAutoMigrate {
			if err := Run(conn); err != nil {
				return err
			}
			log.Info("schema up to date", zap.String("dialect", conn.Dialector.Name()))
		}

		if cfg.SeedDemoData && !cfg.IsProduction() {
			if err := seed.EnsureDemoCatalog(conn, node, cfg.Currency); err != nil {
				return err
			}
			log.Info("demo catalog seeded")
		}
		return nil
	}),
)
