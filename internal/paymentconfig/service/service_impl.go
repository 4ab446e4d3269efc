package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	configdomain "github.com/reclaimlabs/recoveryhub/internal/paymentconfig/domain"
	pkgdb "github.com/reclaimlabs/recoveryhub/pkg/db"
	"github.com/reclaimlabs/recoveryhub/pkg/db/option"
	"github.com/reclaimlabs/recoveryhub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     repository.Repository[configdomain.PaymentConfig]
	auditSvc auditdomain.Service
}

func New(p Params) configdomain.Service {
	return &Service{
		log:      p.Log.Named("paymentconfig.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     repository.ProvideStore[configdomain.PaymentConfig](p.DB),
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req configdomain.CreateRequest) (*configdomain.PaymentConfig, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, configdomain.ErrInvalidName
	}
	if !req.Method.Valid() {
		return nil, configdomain.ErrInvalidMethod
	}

	now := s.clock.Now()
	cfg := configdomain.PaymentConfig{
		ID:       s.genID.Generate(),
		Name:     name,
		Method:   req.Method,
		IsActive: true,

		CryptoWalletAddress: strings.TrimSpace(req.CryptoWalletAddress),
		CryptoNetwork:       strings.ToLower(strings.TrimSpace(req.CryptoNetwork)),
		CryptoCurrency:      strings.ToUpper(strings.TrimSpace(req.CryptoCurrency)),

		WireBankName:      strings.TrimSpace(req.WireBankName),
		WireAccountHolder: strings.TrimSpace(req.WireAccountHolder),
		WireAccountNumber: strings.TrimSpace(req.WireAccountNumber),
		WireRoutingNumber: strings.TrimSpace(req.WireRoutingNumber),
		WireSwiftCode:     strings.TrimSpace(req.WireSwiftCode),
		WireBankAddress:   strings.TrimSpace(req.WireBankAddress),

		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch cfg.Method {
	case configdomain.MethodCrypto:
		if cfg.CryptoWalletAddress == "" {
			return nil, configdomain.ErrMissingDetails
		}
	case configdomain.MethodWire:
		if cfg.WireBankName == "" {
			return nil, configdomain.ErrMissingDetails
		}
	}

	if err := s.repo.Create(ctx, &cfg); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, configdomain.ErrNameTaken
		}
		return nil, err
	}

	s.audit(ctx, req.CreatedBy, "payment_config.created", cfg.ID, map[string]any{
		"name":   cfg.Name,
		"method": string(cfg.Method),
	})
	return &cfg, nil
}

func (s *Service) List(ctx context.Context) ([]configdomain.PaymentConfig, error) {
	return s.list(ctx, &configdomain.PaymentConfig{})
}

func (s *Service) ListActive(ctx context.Context) ([]configdomain.PaymentConfig, error) {
	return s.list(ctx, &configdomain.PaymentConfig{IsActive: true})
}

func (s *Service) list(ctx context.Context, query *configdomain.PaymentConfig) ([]configdomain.PaymentConfig, error) {
	rows, err := s.repo.Find(ctx, query,
		option.WithSortBy(option.QuerySortBy{Default: "created_at", Desc: true}))
	if err != nil {
		return nil, err
	}

	out := make([]configdomain.PaymentConfig, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*configdomain.PaymentConfig, error) {
	cfg, err := s.repo.FindOne(ctx, &configdomain.PaymentConfig{ID: id})
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, configdomain.ErrNotFound
	}
	return cfg, nil
}

func (s *Service) Update(ctx context.Context, req configdomain.UpdateRequest) (*configdomain.PaymentConfig, error) {
	if _, err := s.GetByID(ctx, req.ID); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, configdomain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	setIfPresent(fields, "crypto_wallet_address", req.CryptoWalletAddress)
	setIfPresent(fields, "crypto_network", req.CryptoNetwork)
	setIfPresent(fields, "crypto_currency", req.CryptoCurrency)
	setIfPresent(fields, "wire_bank_name", req.WireBankName)
	setIfPresent(fields, "wire_account_holder", req.WireAccountHolder)
	setIfPresent(fields, "wire_account_number", req.WireAccountNumber)
	setIfPresent(fields, "wire_routing_number", req.WireRoutingNumber)
	setIfPresent(fields, "wire_swift_code", req.WireSwiftCode)
	setIfPresent(fields, "wire_bank_address", req.WireBankAddress)

	if err := s.repo.Update(ctx, req.ID.String(), fields); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, configdomain.ErrNameTaken
		}
		return nil, err
	}

	s.audit(ctx, 0, "payment_config.updated", req.ID, nil)
	return s.GetByID(ctx, req.ID)
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id.String()); err != nil {
		return err
	}
	s.audit(ctx, 0, "payment_config.deleted", id, nil)
	return nil
}

func setIfPresent(fields map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	fields[column] = strings.TrimSpace(*value)
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
	if err := s.auditSvc.AuditLog(ctx, "user", actor, action, "payment_config", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.Error(err), zap.String("action", action))
	}
}
