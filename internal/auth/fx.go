package auth

import (
	"github.com/reclaimlabs/recoveryhub/internal/auth/repository"
	"github.com/reclaimlabs/recoveryhub/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
