package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	walletdomain "github.com/reclaimlabs/recoveryhub/internal/wallet/domain"
	"github.com/reclaimlabs/recoveryhub/pkg/db/option"
	"github.com/reclaimlabs/recoveryhub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cfg   config.Config
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      repository.Repository[walletdomain.Connection]
	projectID string
}

func New(p Params) walletdomain.Service {
	return &Service{
		log:       p.Log.Named("wallet.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      repository.ProvideStore[walletdomain.Connection](p.DB),
		projectID: p.Cfg.WalletConnectProjectID,
	}
}

func (s *Service) Connect(ctx context.Context, req walletdomain.ConnectRequest) (*walletdomain.Connection, error) {
	if req.UserID == 0 {
		return nil, walletdomain.ErrInvalidUser
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, walletdomain.ErrInvalidAddress
	}

	conn := walletdomain.Connection{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Address:   address,
		Provider:  strings.TrimSpace(req.Provider),
		Signature: strings.TrimSpace(req.Signature),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *Service) ListForUser(ctx context.Context, userID snowflake.ID) ([]walletdomain.Connection, error) {
	rows, err := s.repo.Find(ctx, &walletdomain.Connection{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Default: "created_at", Desc: true}))
	if err != nil {
		return nil, err
	}

	out := make([]walletdomain.Connection, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (s *Service) Config() walletdomain.ConnectConfig {
	return walletdomain.ConnectConfig{ProjectID: s.projectID}
}
