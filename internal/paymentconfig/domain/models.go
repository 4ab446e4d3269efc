// Package domain contains reusable payment configuration types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Method is the settlement rail a config describes.
type Method string

const (
	MethodCrypto Method = "crypto"
	MethodWire   Method = "wire"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodCrypto || m == MethodWire
}

// PaymentConfig is a named payment template. Staff pick one when issuing
// an invoice and its fields prefill the invoice payment details.
type PaymentConfig struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	Name     string       `gorm:"column:name;type:text;not null;uniqueIndex"`
	Method   Method       `gorm:"column:method;type:text;not null"`
	IsActive bool         `gorm:"column:is_active;not null;default:true;index"`

	CryptoWalletAddress string `json:"crypto_wallet_address" gorm:"type:text"`
	CryptoNetwork       string `json:"crypto_network" gorm:"type:text"`
	CryptoCurrency      string `json:"crypto_currency" gorm:"type:text"`

	WireBankName      string `json:"wire_bank_name" gorm:"type:text"`
	WireAccountHolder string `json:"wire_account_holder" gorm:"type:text"`
	WireAccountNumber string `json:"wire_account_number" gorm:"type:text"`
	WireRoutingNumber string `json:"wire_routing_number" gorm:"type:text"`
	WireSwiftCode     string `json:"wire_swift_code" gorm:"type:text"`
	WireBankAddress   string `json:"wire_bank_address" gorm:"type:text"`

	CreatedBy snowflake.ID `gorm:"column:created_by"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentConfig) TableName() string { return "payment_configs" }
