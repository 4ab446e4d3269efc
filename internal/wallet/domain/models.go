// Package domain contains wallet connection types.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Connection records that a user linked an external wallet. The wallet
// itself stays in the user's browser extension; only the address and
// the proving signature land here.
type Connection struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	Address   string       `gorm:"column:address;type:text;not null"`
	Provider  string       `gorm:"column:provider;type:text"`
	Signature string       `gorm:"column:signature;type:text"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Connection) TableName() string { return "wallet_connections" }

type ConnectRequest struct {
	UserID    snowflake.ID
	Address   string
	Provider  string
	Signature string
}

// ConnectConfig is handed to the client so it can start a WalletConnect
// session.
type ConnectConfig struct {
	ProjectID string `json:"project_id"`
}

type Service interface {
	Connect(ctx context.Context, req ConnectRequest) (*Connection, error)
	ListForUser(ctx context.Context, userID snowflake.ID) ([]Connection, error)
	Config() ConnectConfig
}

var (
	ErrInvalidAddress = errors.New("invalid_wallet_address")
	ErrInvalidUser    = errors.New("invalid_user")
)
