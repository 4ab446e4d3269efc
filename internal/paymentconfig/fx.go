package paymentconfig

import (
	"github.com/reclaimlabs/recoveryhub/internal/paymentconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymentconfig.service",
	fx.Provide(service.New),
)
