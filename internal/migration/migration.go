// Package migration creates the database schema on startup so local
// and self-hosted deployments work out of the box.
package migration

import (
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	authdomain "github.com/reclaimlabs/recoveryhub/internal/auth/domain"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	paymentdomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	configdomain "github.com/reclaimlabs/recoveryhub/internal/paymentconfig/domain"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	walletdomain "github.com/reclaimlabs/recoveryhub/internal/wallet/domain"
	"gorm.io/gorm"
)

func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&roledomain.UserRole{},
		&casedomain.Case{},
		&casedomain.Message{},
		&casedomain.ProgressUpdate{},
		&attachmentdomain.Attachment{},
		&invoicedomain.Invoice{},
		&configdomain.PaymentConfig{},
		&paymentdomain.Payment{},
		&walletdomain.Connection{},
		&auditdomain.AuditLog{},
	)
}
