package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Repo     domain.Repository
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("role.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    p.Clock,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Assign(ctx context.Context, userID snowflake.ID, role domain.Role, grantedBy *snowflake.ID) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	grant := &domain.UserRole{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Role:      role,
		GrantedBy: grantedBy,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, grant); err != nil {
		return err
	}

	s.audit(ctx, grantedBy, "role.assigned", userID, map[string]any{"role": string(role)})
	return nil
}

func (s *Service) Remove(ctx context.Context, userID snowflake.ID, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrInvalidRole
	}

	// Removing the admin role is refused while this user is the only
	// admin left. The check and the delete are separate statements, so
	// two concurrent removals can still race past it.
	if role == domain.RoleAdmin {
		count, err := s.repo.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if count <= 1 {
			has, err := s.HasRole(ctx, userID, domain.RoleAdmin)
			if err != nil {
				return err
			}
			if has {
				return domain.ErrLastAdmin
			}
		}
	}

	if err := s.repo.Delete(ctx, userID, role); err != nil {
		return err
	}

	s.audit(ctx, nil, "role.removed", userID, map[string]any{"role": string(role)})
	return nil
}

func (s *Service) RolesForUser(ctx context.Context, userID snowflake.ID) ([]domain.Role, error) {
	grants, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles := make([]domain.Role, 0, len(grants))
	for _, g := range grants {
		roles = append(roles, g.Role)
	}
	return roles, nil
}

func (s *Service) HasRole(ctx context.Context, userID snowflake.ID, role domain.Role) (bool, error) {
	roles, err := s.RolesForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) CountAdmins(ctx context.Context) (int64, error) {
	return s.repo.CountByRole(ctx, domain.RoleAdmin)
}

// EnsureUserDeletable refuses deletion of the last remaining admin.
func (s *Service) EnsureUserDeletable(ctx context.Context, userID snowflake.ID) error {
	has, err := s.HasRole(ctx, userID, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	count, err := s.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return domain.ErrLastAdmin
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actorID *snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	var actor *string
	if actorID != nil {
		str := actorID.String()
		actor = &str
	}
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, "user", actor, action, "user", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.Error(err), zap.String("action", action))
	}
}
