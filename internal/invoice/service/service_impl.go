package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/format"
	"github.com/reclaimlabs/recoveryhub/internal/observability/metrics"
	"github.com/reclaimlabs/recoveryhub/internal/providers/email"
	"github.com/reclaimlabs/recoveryhub/pkg/db/option"
	"github.com/reclaimlabs/recoveryhub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Formatter *format.Formatter
	AuditSvc  auditdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
	Email     email.Provider   `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	formatter *format.Formatter
	repo      repository.Repository[invoicedomain.Invoice]
	auditSvc  auditdomain.Service
	metrics   *metrics.Metrics
	email     email.Provider
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		formatter: p.Formatter,
		repo:      repository.ProvideStore[invoicedomain.Invoice](p.DB),
		auditSvc:  p.AuditSvc,
		metrics:   p.Metrics,
		email:     p.Email,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	caseID, err := snowflake.ParseString(strings.TrimSpace(req.CaseID))
	if err != nil || caseID == 0 {
		return nil, invoicedomain.ErrInvalidCase
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	if req.AmountDue <= 0 {
		return nil, invoicedomain.ErrInvalidAmount
	}
	currencyCode := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currencyCode) != 3 {
		return nil, invoicedomain.ErrInvalidCurrency
	}

	now := s.clock.Now()
	inv := invoicedomain.Invoice{
		ID:        s.genID.Generate(),
		CaseID:    caseID,
		UserID:    userID,
		CreatedBy: req.CreatedBy,
		AmountDue: req.AmountDue,
		Currency:  currencyCode,
		Status:    invoicedomain.StatusPending,
		DueDate:   req.DueDate,

		CryptoWalletAddress: strings.TrimSpace(req.CryptoWalletAddress),
		CryptoNetwork:       strings.ToLower(strings.TrimSpace(req.CryptoNetwork)),
		CryptoCurrency:      strings.ToUpper(strings.TrimSpace(req.CryptoCurrency)),

		WireBankName:      strings.TrimSpace(req.WireBankName),
		WireAccountHolder: strings.TrimSpace(req.WireAccountHolder),
		WireAccountNumber: strings.TrimSpace(req.WireAccountNumber),
		WireRoutingNumber: strings.TrimSpace(req.WireRoutingNumber),
		WireSwiftCode:     strings.TrimSpace(req.WireSwiftCode),
		WireBankAddress:   strings.TrimSpace(req.WireBankAddress),

		CreatedAt: now,
		UpdatedAt: now,
	}

	// An invoice must carry at least one payment method. The portal form
	// validates this too, but the form check can be bypassed.
	if !inv.HasCryptoMethod() && !inv.HasWireMethod() {
		return nil, invoicedomain.ErrNoPaymentMethod
	}

	inv.PaymentInstructions = s.formatter.Instructions(inv)

	if err := s.repo.Create(ctx, &inv); err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceIssued(ctx, inv.Currency)
	s.audit(ctx, req.CreatedBy, "invoice.created", inv.ID, map[string]any{
		"case_id":  inv.CaseID.String(),
		"amount":   inv.AmountDue,
		"currency": inv.Currency,
	})
	s.notifyIssued(ctx, inv)

	return &inv, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	filter := &invoicedomain.Invoice{}
	if id := strings.TrimSpace(req.CaseID); id != "" {
		caseID, err := snowflake.ParseString(id)
		if err != nil {
			return nil, invoicedomain.ErrInvalidCase
		}
		filter.CaseID = caseID
	}
	if id := strings.TrimSpace(req.UserID); id != "" {
		userID, err := snowflake.ParseString(id)
		if err != nil {
			return nil, invoicedomain.ErrInvalidUser
		}
		filter.UserID = userID
	}
	if req.Status != nil {
		filter.Status = *req.Status
	}

	items, err := s.repo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return nil, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return nil, invoicedomain.ErrNotFound
	}

	inv, err := s.repo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID})
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return inv, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to invoicedomain.Status) (*invoicedomain.Invoice, error) {
	if !to.Valid() {
		return nil, invoicedomain.ErrInvalidStatus
	}

	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoicedomain.CanTransition(inv.Status, to) {
		return nil, invoicedomain.ErrInvalidStatus
	}

	from := inv.Status
	now := s.clock.Now()
	inv.ApplyStatus(to, now)
	inv.UpdatedAt = now

	updates := map[string]any{
		"status":     inv.Status,
		"paid_at":    inv.PaidAt,
		"updated_at": inv.UpdatedAt,
	}
	if err := s.repo.Update(ctx, inv.ID.String(), updates); err != nil {
		return nil, err
	}

	s.audit(ctx, 0, "invoice.status_changed", inv.ID, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	return inv, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, inv.ID.String()); err != nil {
		return err
	}
	s.audit(ctx, 0, "invoice.deleted", inv.ID, nil)
	return nil
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
	if err := s.auditSvc.AuditLog(ctx, "user", actor, action, "invoice", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.Error(err), zap.String("action", action))
	}
}

func (s *Service) notifyIssued(ctx context.Context, inv invoicedomain.Invoice) {
	if s.email == nil {
		return
	}

	var recipient struct {
		Email string `gorm:"column:email"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT email FROM users WHERE id = ?`, inv.UserID,
	).Scan(&recipient).Error; err != nil || strings.TrimSpace(recipient.Email) == "" {
		return
	}

	subject := fmt.Sprintf("Invoice for your recovery case: %.2f %s due", inv.AmountDue, inv.Currency)
	body := fmt.Sprintf("<p>A new invoice has been issued on your case.</p><pre>%s</pre>", inv.PaymentInstructions)
	if err := s.email.Send(ctx, []string{recipient.Email}, subject, body); err != nil {
		s.log.Warn("invoice notification failed", zap.Error(err), zap.String("invoice_id", inv.ID.String()))
	}
}
