package attachment

import (
	"github.com/reclaimlabs/recoveryhub/internal/attachment/cleaner"
	"github.com/reclaimlabs/recoveryhub/internal/attachment/service"
	"github.com/reclaimlabs/recoveryhub/internal/attachment/store"
	"go.uber.org/fx"
)

var Module = fx.Module("attachment.service",
	store.Module,
	fx.Provide(service.New),
	fx.Provide(cleaner.New),
)
