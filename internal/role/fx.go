package role

import (
	authservice "github.com/reclaimlabs/recoveryhub/internal/auth/service"
	"github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"github.com/reclaimlabs/recoveryhub/internal/role/repository"
	"github.com/reclaimlabs/recoveryhub/internal/role/service"
	"go.uber.org/fx"
)

var Module = fx.Module("role.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) authservice.DeletionGuard { return s }),
)
