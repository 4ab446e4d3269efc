package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type SubmitRequest struct {
	InvoiceID   snowflake.ID
	SubmittedBy snowflake.ID
	TxHash      string
	Amount      float64
	Currency    string
	Network     string
}

type ListRequest struct {
	InvoiceID snowflake.ID // zero lists across invoices
	Status    *ConfirmationStatus
	Limit     int
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Payment, error)
	List(ctx context.Context, req ListRequest) ([]Payment, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Payment, error)
	// Verify confirms a claimed payment, settles the invoice and moves
	// the parent case along.
	Verify(ctx context.Context, id snowflake.ID, verifiedBy snowflake.ID) (*Payment, error)
}

var (
	ErrNotFound         = errors.New("crypto_payment_not_found")
	ErrInvalidTxHash    = errors.New("invalid_tx_hash")
	ErrInvalidAmount    = errors.New("invalid_payment_amount")
	ErrInvalidInvoice   = errors.New("invalid_invoice")
	ErrDuplicateTxHash  = errors.New("tx_hash_already_claimed")
	ErrAlreadyConfirmed = errors.New("payment_already_confirmed")
)
