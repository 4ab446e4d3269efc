package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error
	UpdateCredentials(ctx context.Context, req UpdateCredentialsRequest) (*User, error)
	GetAuthDetails(ctx context.Context, userID snowflake.ID) (*AuthDetails, error)
	GetUser(ctx context.Context, userID snowflake.ID) (*User, error)
	DeleteUser(ctx context.Context, userID snowflake.ID) error
}

type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

// UpdateCredentialsRequest carries the admin-driven credential edits.
// Empty fields are left unchanged.
type UpdateCredentialsRequest struct {
	UserID      snowflake.ID
	Email       string
	NewPassword string
}
