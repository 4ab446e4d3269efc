package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/currency"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/format"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (invoicedomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&invoicedomain.Invoice{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	svc := NewService(ServiceParam{
		DB:        dbConn,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Formatter: format.NewFormatter(currency.NewConverter(log)),
	})
	return svc, fake
}

func createReq() invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		CaseID:              "100",
		UserID:              "200",
		AmountDue:           100,
		Currency:            "EUR",
		CryptoWalletAddress: "TWallet1",
		CryptoNetwork:       "tron",
	}
}

func TestCreateRejectsMissingPaymentMethod(t *testing.T) {
	svc, _ := newTestService(t)

	req := createReq()
	req.CryptoWalletAddress = ""
	req.WireBankName = ""

	if _, err := svc.Create(context.Background(), req); err != invoicedomain.ErrNoPaymentMethod {
		t.Fatalf("expected ErrNoPaymentMethod, got %v", err)
	}

	items, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("no invoice may be persisted without a payment method, found %d", len(items))
	}
}

func TestCreateGeneratesInstructions(t *testing.T) {
	svc, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if inv.Status != invoicedomain.StatusPending {
		t.Fatalf("expected pending, got %s", inv.Status)
	}
	if inv.PaymentInstructions == "" {
		t.Fatal("expected generated payment instructions")
	}
	if inv.PaidAt != nil {
		t.Fatal("new invoice must not be paid")
	}
}

func TestUpdateStatusMaintainsPaidAt(t *testing.T) {
	svc, fake := newTestService(t)

	inv, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fake.Advance(time.Hour)
	paid, err := svc.UpdateStatus(context.Background(), inv.ID.String(), invoicedomain.StatusPaid)
	if err != nil {
		t.Fatalf("update to paid failed: %v", err)
	}
	if paid.PaidAt == nil {
		t.Fatal("transition to paid must set paid_at")
	}
	if !paid.PaidAt.Equal(fake.Now()) {
		t.Fatalf("paid_at %v should match clock %v", paid.PaidAt, fake.Now())
	}

	// Admin may move the invoice backward; paid_at must be cleared.
	reverted, err := svc.UpdateStatus(context.Background(), inv.ID.String(), invoicedomain.StatusPending)
	if err != nil {
		t.Fatalf("update to pending failed: %v", err)
	}
	if reverted.PaidAt != nil {
		t.Fatal("leaving paid must clear paid_at")
	}

	stored, err := svc.GetByID(context.Background(), inv.ID.String())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.PaidAt != nil {
		t.Fatal("cleared paid_at must be persisted")
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)

	inv, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), inv.ID.String(), invoicedomain.Status("archived")); err != invoicedomain.ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestListFiltersByCase(t *testing.T) {
	svc, _ := newTestService(t)

	first := createReq()
	if _, err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second := createReq()
	second.CaseID = "101"
	if _, err := svc.Create(context.Background(), second); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, err := svc.List(context.Background(), invoicedomain.ListInvoiceRequest{CaseID: "101"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 invoice for case 101, got %d", len(items))
	}
}
