package store

import (
	"fmt"

	"github.com/reclaimlabs/recoveryhub/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("attachment.store",
	fx.Provide(New),
)

func New(cfg config.Config) (ObjectStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Store(cfg.Storage)
	case "disk", "":
		return NewDiskStore(cfg.Storage.DiskRoot)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
