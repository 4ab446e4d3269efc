// Package domain contains role assignment types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is a closed set. Anything outside it is rejected at the service
// boundary.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// UserRole is a single role grant for a user.
type UserRole struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	UserID    snowflake.ID  `gorm:"column:user_id;not null;uniqueIndex:idx_user_roles_user_role"`
	Role      Role          `gorm:"column:role;type:text;not null;uniqueIndex:idx_user_roles_user_role"`
	GrantedBy *snowflake.ID `gorm:"column:granted_by"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UserRole) TableName() string { return "user_roles" }
