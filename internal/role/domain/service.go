package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Assign(ctx context.Context, userID snowflake.ID, role Role, grantedBy *snowflake.ID) error
	Remove(ctx context.Context, userID snowflake.ID, role Role) error
	RolesForUser(ctx context.Context, userID snowflake.ID) ([]Role, error)
	HasRole(ctx context.Context, userID snowflake.ID, role Role) (bool, error)
	CountAdmins(ctx context.Context) (int64, error)
	EnsureUserDeletable(ctx context.Context, userID snowflake.ID) error
}

type Repository interface {
	Insert(ctx context.Context, grant *UserRole) error
	Delete(ctx context.Context, userID snowflake.ID, role Role) error
	ListByUser(ctx context.Context, userID snowflake.ID) ([]UserRole, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
}

var (
	ErrInvalidRole  = errors.New("invalid_role")
	ErrRoleNotFound = errors.New("role_not_found")

	// ErrLastAdmin is returned when an operation would leave the system
	// without any administrator.
	ErrLastAdmin = errors.New("cannot_remove_last_admin")
)
