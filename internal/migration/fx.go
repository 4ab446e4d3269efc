package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"github.com/reclaimlabs/recoveryhub/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if err := Run(conn); err != nil {
			return err
		}
		return seed.EnsureAdmin(conn, genID, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	}),
)
