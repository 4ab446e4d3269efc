// Package domain contains persistence models for client invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirming Status = "confirming"
	StatusPaid       Status = "paid"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known invoice status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirming, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	default:
		return false
	}
}

// transitions is the explicit status transition table. Every transition is
// currently permitted; tightening the policy later is a table edit, not a
// behavioral change scattered across handlers.
var transitions = map[Status]map[Status]bool{
	StatusPending:    {StatusPending: true, StatusConfirming: true, StatusPaid: true, StatusOverdue: true, StatusCancelled: true},
	StatusConfirming: {StatusPending: true, StatusConfirming: true, StatusPaid: true, StatusOverdue: true, StatusCancelled: true},
	StatusPaid:       {StatusPending: true, StatusConfirming: true, StatusPaid: true, StatusOverdue: true, StatusCancelled: true},
	StatusOverdue:    {StatusPending: true, StatusConfirming: true, StatusPaid: true, StatusOverdue: true, StatusCancelled: true},
	StatusCancelled:  {StatusPending: true, StatusConfirming: true, StatusPaid: true, StatusOverdue: true, StatusCancelled: true},
}

// CanTransition reports whether the status change is allowed by the table.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return transitions[from][to]
}

// ApplyStatus moves the invoice to the target status and maintains PaidAt:
// entering paid stamps it, leaving paid clears it.
func (i *Invoice) ApplyStatus(to Status, now time.Time) {
	if to == StatusPaid && i.Status != StatusPaid {
		paidAt := now.UTC()
		i.PaidAt = &paidAt
	}
	if to != StatusPaid {
		i.PaidAt = nil
	}
	i.Status = to
}

// Invoice represents a payment request tied to a recovery case.
type Invoice struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	CaseID    snowflake.ID `json:"case_id" gorm:"not null;index"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	CreatedBy snowflake.ID `json:"created_by" gorm:"not null"`

	AmountDue float64    `json:"amount_due" gorm:"not null"`
	Currency  string     `json:"currency" gorm:"type:text;not null"`
	Status    Status     `json:"invoice_status" gorm:"type:text;not null;default:'pending'"`
	DueDate   *time.Time `json:"due_date"`
	PaidAt    *time.Time `json:"paid_at"`

	CryptoWalletAddress string `json:"crypto_wallet_address" gorm:"type:text"`
	CryptoNetwork       string `json:"crypto_network" gorm:"type:text"`
	CryptoCurrency      string `json:"crypto_currency" gorm:"type:text"`

	WireBankName      string `json:"wire_bank_name" gorm:"type:text"`
	WireAccountHolder string `json:"wire_account_holder" gorm:"type:text"`
	WireAccountNumber string `json:"wire_account_number" gorm:"type:text"`
	WireRoutingNumber string `json:"wire_routing_number" gorm:"type:text"`
	WireSwiftCode     string `json:"wire_swift_code" gorm:"type:text"`
	WireBankAddress   string `json:"wire_bank_address" gorm:"type:text"`

	PaymentInstructions string            `json:"payment_instructions" gorm:"type:text"`
	Metadata            datatypes.JSONMap `json:"metadata" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "client_invoices" }

// HasCryptoMethod reports whether crypto payment details are attached.
func (i Invoice) HasCryptoMethod() bool { return i.CryptoWalletAddress != "" }

// HasWireMethod reports whether wire transfer details are attached.
func (i Invoice) HasWireMethod() bool { return i.WireBankName != "" }
