package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	configdomain "github.com/reclaimlabs/recoveryhub/internal/paymentconfig/domain"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) configdomain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&configdomain.PaymentConfig{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func TestCreateCryptoRequiresWallet(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), configdomain.CreateRequest{
		Name:   "Treasury USDT",
		Method: configdomain.MethodCrypto,
	})
	if err != configdomain.ErrMissingDetails {
		t.Fatalf("expected ErrMissingDetails, got %v", err)
	}
}

func TestListActiveExcludesDisabled(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, configdomain.CreateRequest{
		Name:                "Treasury USDT",
		Method:              configdomain.MethodCrypto,
		CryptoWalletAddress: "TX7k2mPqW9yF4e",
		CryptoNetwork:       "tron",
		CryptoCurrency:      "USDT",
	})
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	disabled, err := svc.Create(ctx, configdomain.CreateRequest{
		Name:         "Legacy Wire",
		Method:       configdomain.MethodWire,
		WireBankName: "First National",
	})
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	off := false
	if _, err := svc.Update(ctx, configdomain.UpdateRequest{ID: disabled.ID, IsActive: &off}); err != nil {
		t.Fatalf("failed to disable config: %v", err)
	}

	list, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("failed to list active: %v", err)
	}
	if len(list) != 1 || list[0].ID != active.ID {
		t.Fatalf("expected only active config, got %+v", list)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := configdomain.CreateRequest{
		Name:         "Primary Wire",
		Method:       configdomain.MethodWire,
		WireBankName: "First National",
	}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("failed to create config: %v", err)
	}
	if _, err := svc.Create(ctx, req); err != configdomain.ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}
