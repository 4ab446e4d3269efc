package audit

import (
	"github.com/reclaimlabs/recoveryhub/internal/audit/repository"
	"github.com/reclaimlabs/recoveryhub/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
