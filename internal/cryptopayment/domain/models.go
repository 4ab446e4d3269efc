// Package domain contains crypto payment claim types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ConfirmationStatus is the review state of a claimed transaction.
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
)

// Payment is a client-claimed on-chain transaction for an invoice. The
// hash is taken at the client's word until staff verify it.
type Payment struct {
	ID                 snowflake.ID       `gorm:"primaryKey"`
	InvoiceID          snowflake.ID       `gorm:"column:invoice_id;not null;index"`
	SubmittedBy        snowflake.ID       `gorm:"column:submitted_by;not null"`
	TxHash             string             `gorm:"column:tx_hash;type:text;not null;uniqueIndex"`
	Amount             float64            `gorm:"column:amount;not null"`
	Currency           string             `gorm:"column:currency;type:text;not null"`
	Network            string             `gorm:"column:network;type:text"`
	ConfirmationStatus ConfirmationStatus `gorm:"column:confirmation_status;type:text;not null;index"`
	VerifiedBy         *snowflake.ID      `gorm:"column:verified_by"`
	VerifiedAt         *time.Time         `gorm:"column:verified_at"`
	CreatedAt          time.Time          `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "crypto_payments" }
