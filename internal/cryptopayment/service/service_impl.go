package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	paymentdomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/reclaimlabs/recoveryhub/internal/observability/metrics"
	pkgdb "github.com/reclaimlabs/recoveryhub/pkg/db"
	"github.com/reclaimlabs/recoveryhub/pkg/db/option"
	"github.com/reclaimlabs/recoveryhub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxListLimit = 100

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	CaseSvc    casedomain.Service
	AuditSvc   auditdomain.Service `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       repository.Repository[paymentdomain.Payment]
	invoiceSvc invoicedomain.Service
	caseSvc    casedomain.Service
	auditSvc   auditdomain.Service
	metrics    *metrics.Metrics
}

func New(p Params) paymentdomain.Service {
	return &Service{
		log:        p.Log.Named("cryptopayment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       repository.ProvideStore[paymentdomain.Payment](p.DB),
		invoiceSvc: p.InvoiceSvc,
		caseSvc:    p.CaseSvc,
		auditSvc:   p.AuditSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) Submit(ctx context.Context, req paymentdomain.SubmitRequest) (*paymentdomain.Payment, error) {
	txHash := strings.TrimSpace(req.TxHash)
	if txHash == "" {
		return nil, paymentdomain.ErrInvalidTxHash
	}
	if req.Amount <= 0 {
		return nil, paymentdomain.ErrInvalidAmount
	}
	if req.InvoiceID == 0 {
		return nil, paymentdomain.ErrInvalidInvoice
	}
	if _, err := s.invoiceSvc.GetByID(ctx, req.InvoiceID.String()); err != nil {
		return nil, paymentdomain.ErrInvalidInvoice
	}

	now := s.clock.Now()
	payment := paymentdomain.Payment{
		ID:                 s.genID.Generate(),
		InvoiceID:          req.InvoiceID,
		SubmittedBy:        req.SubmittedBy,
		TxHash:             txHash,
		Amount:             req.Amount,
		Currency:           strings.ToUpper(strings.TrimSpace(req.Currency)),
		Network:            strings.ToLower(strings.TrimSpace(req.Network)),
		ConfirmationStatus: paymentdomain.ConfirmationPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, &payment); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, paymentdomain.ErrDuplicateTxHash
		}
		return nil, err
	}

	s.audit(ctx, req.SubmittedBy, "crypto_payment.submitted", payment.ID, map[string]any{
		"invoice_id": payment.InvoiceID.String(),
		"tx_hash":    payment.TxHash,
	})
	return &payment, nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListRequest) ([]paymentdomain.Payment, error) {
	query := paymentdomain.Payment{}
	if req.InvoiceID != 0 {
		query.InvoiceID = req.InvoiceID
	}
	if req.Status != nil {
		query.ConfirmationStatus = *req.Status
	}

	limit := req.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.repo.Find(ctx, &query,
		option.WithSortBy(option.QuerySortBy{Default: "created_at", Desc: true}),
		option.WithLimit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]paymentdomain.Payment, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindOne(ctx, &paymentdomain.Payment{ID: id})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, paymentdomain.ErrNotFound
	}
	return payment, nil
}

func (s *Service) Verify(ctx context.Context, id snowflake.ID, verifiedBy snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.ConfirmationStatus == paymentdomain.ConfirmationConfirmed {
		return nil, paymentdomain.ErrAlreadyConfirmed
	}

	now := s.clock.Now()
	if err := s.repo.Update(ctx, id.String(), map[string]any{
		"confirmation_status": paymentdomain.ConfirmationConfirmed,
		"verified_by":         verifiedBy,
		"verified_at":         now,
		"updated_at":          now,
	}); err != nil {
		return nil, err
	}
	payment.ConfirmationStatus = paymentdomain.ConfirmationConfirmed
	payment.VerifiedBy = &verifiedBy
	payment.VerifiedAt = &now
	payment.UpdatedAt = now

	// Settling the invoice goes through its status machine so paid_at
	// gets stamped there, not here.
	inv, err := s.invoiceSvc.UpdateStatus(ctx, payment.InvoiceID.String(), invoicedomain.StatusPaid)
	if err != nil {
		s.log.Error("failed to settle invoice for verified payment",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("invoice_id", payment.InvoiceID.String()))
		return nil, err
	}

	if err := s.caseSvc.NudgeInProgress(ctx, inv.CaseID); err != nil {
		s.log.Warn("failed to nudge case after payment verification",
			zap.Error(err),
			zap.String("case_id", inv.CaseID.String()))
	}

	s.metrics.RecordPaymentVerified(ctx, payment.Network)
	s.audit(ctx, verifiedBy, "crypto_payment.verified", payment.ID, map[string]any{
		"invoice_id": payment.InvoiceID.String(),
		"tx_hash":    payment.TxHash,
	})
	return payment, nil
}

func (s *Service) audit(ctx context.Context, actorID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	var actor *string
	if actorID != 0 {
		str := actorID.String()
		actor = &str
	}
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, "user", actor, action, "crypto_payment", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.Error(err), zap.String("action", action))
	}
}
