package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreateInvoiceRequest carries admin-entered invoice fields.
type CreateInvoiceRequest struct {
	CaseID    string     `json:"case_id"`
	UserID    string     `json:"user_id"`
	AmountDue float64    `json:"amount_due"`
	Currency  string     `json:"currency"`
	DueDate   *time.Time `json:"due_date"`

	CryptoWalletAddress string `json:"crypto_wallet_address"`
	CryptoNetwork       string `json:"crypto_network"`
	CryptoCurrency      string `json:"crypto_currency"`

	WireBankName      string `json:"wire_bank_name"`
	WireAccountHolder string `json:"wire_account_holder"`
	WireAccountNumber string `json:"wire_account_number"`
	WireRoutingNumber string `json:"wire_routing_number"`
	WireSwiftCode     string `json:"wire_swift_code"`
	WireBankAddress   string `json:"wire_bank_address"`

	CreatedBy snowflake.ID `json:"-"`
}

// ListInvoiceRequest filters the invoice listing.
type ListInvoiceRequest struct {
	CaseID string
	UserID string
	Status *Status
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) ([]Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	UpdateStatus(ctx context.Context, id string, to Status) (*Invoice, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound        = errors.New("invoice_not_found")
	ErrNoPaymentMethod = errors.New("invoice_requires_payment_method")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidCase     = errors.New("invalid_case")
	ErrInvalidUser     = errors.New("invalid_user")
)
