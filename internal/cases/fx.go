package cases

import (
	"github.com/reclaimlabs/recoveryhub/internal/cases/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cases.service",
	fx.Provide(service.New),
)
