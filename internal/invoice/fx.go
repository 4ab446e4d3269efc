package invoice

import (
	"github.com/reclaimlabs/recoveryhub/internal/currency"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/format"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	currency.Module,
	fx.Provide(format.NewFormatter),
	fx.Provide(service.NewService),
)
