package cryptopayment

import (
	"github.com/reclaimlabs/recoveryhub/internal/cryptopayment/service"
	"github.com/reclaimlabs/recoveryhub/internal/cryptopayment/worker"
	"go.uber.org/fx"
)

var Module = fx.Module("cryptopayment.service",
	fx.Provide(service.New),
	fx.Provide(worker.NewWorker),
)
