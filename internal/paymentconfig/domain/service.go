package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	Name      string
	Method    Method
	CreatedBy snowflake.ID

	CryptoWalletAddress string
	CryptoNetwork       string
	CryptoCurrency      string

	WireBankName      string
	WireAccountHolder string
	WireAccountNumber string
	WireRoutingNumber string
	WireSwiftCode     string
	WireBankAddress   string
}

// UpdateRequest patches a config. Nil pointers leave fields unchanged.
type UpdateRequest struct {
	ID       snowflake.ID
	Name     *string
	IsActive *bool

	CryptoWalletAddress *string
	CryptoNetwork       *string
	CryptoCurrency      *string

	WireBankName      *string
	WireAccountHolder *string
	WireAccountNumber *string
	WireRoutingNumber *string
	WireSwiftCode     *string
	WireBankAddress   *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PaymentConfig, error)
	List(ctx context.Context) ([]PaymentConfig, error)
	ListActive(ctx context.Context) ([]PaymentConfig, error)
	GetByID(ctx context.Context, id snowflake.ID) (*PaymentConfig, error)
	Update(ctx context.Context, req UpdateRequest) (*PaymentConfig, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound       = errors.New("payment_config_not_found")
	ErrInvalidName    = errors.New("invalid_payment_config_name")
	ErrInvalidMethod  = errors.New("invalid_payment_method")
	ErrMissingDetails = errors.New("payment_config_missing_details")
	ErrNameTaken      = errors.New("payment_config_name_taken")
)
