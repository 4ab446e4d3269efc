package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	caseservice "github.com/reclaimlabs/recoveryhub/internal/cases/service"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/currency"
	paymentdomain "github.com/reclaimlabs/recoveryhub/internal/cryptopayment/domain"
	invoicedomain "github.com/reclaimlabs/recoveryhub/internal/invoice/domain"
	"github.com/reclaimlabs/recoveryhub/internal/invoice/format"
	invoiceservice "github.com/reclaimlabs/recoveryhub/internal/invoice/service"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

type fixture struct {
	payments paymentdomain.Service
	invoices invoicedomain.Service
	cases    casedomain.Service
	node     *snowflake.Node
	fake     *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&invoicedomain.Invoice{},
		&casedomain.Case{},
		&casedomain.Message{},
		&casedomain.ProgressUpdate{},
		&paymentdomain.Payment{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	caseSvc := caseservice.New(caseservice.Params{
		DB:    dbConn,
		Log:   log,
		GenID: node,
		Clock: fake,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:        dbConn,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Formatter: format.NewFormatter(currency.NewConverter(log)),
	})
	paymentSvc := New(Params{
		DB:         dbConn,
		Log:        log,
		GenID:      node,
		Clock:      fake,
		InvoiceSvc: invoiceSvc,
		CaseSvc:    caseSvc,
	})

	return &fixture{
		payments: paymentSvc,
		invoices: invoiceSvc,
		cases:    caseSvc,
		node:     node,
		fake:     fake,
	}
}

func (f *fixture) newInvoice(t *testing.T) (*casedomain.Case, *invoicedomain.Invoice) {
	t.Helper()
	ctx := context.Background()

	c, err := f.cases.Create(ctx, casedomain.CreateCaseRequest{
		UserID:   f.node.Generate(),
		Title:    "Exchange withdrawal frozen",
		CaseType: "crypto_recovery",
	})
	if err != nil {
		t.Fatalf("failed to create case: %v", err)
	}

	inv, err := f.invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
		CaseID:              c.ID.String(),
		UserID:              c.UserID.String(),
		AmountDue:           250,
		Currency:            "USD",
		CryptoWalletAddress: "TX7k2mPqW9yF4e",
		CryptoNetwork:       "tron",
		CryptoCurrency:      "USDT",
	})
	if err != nil {
		t.Fatalf("failed to create invoice: %v", err)
	}
	return c, inv
}

func TestSubmitRejectsUnknownInvoice(t *testing.T) {
	f := newFixture(t)

	_, err := f.payments.Submit(context.Background(), paymentdomain.SubmitRequest{
		InvoiceID:   f.node.Generate(),
		SubmittedBy: f.node.Generate(),
		TxHash:      "0xabc123",
		Amount:      250,
		Currency:    "USDT",
	})
	if err != paymentdomain.ErrInvalidInvoice {
		t.Fatalf("expected ErrInvalidInvoice, got %v", err)
	}
}

func TestSubmitDuplicateHash(t *testing.T) {
	f := newFixture(t)
	_, inv := f.newInvoice(t)
	ctx := context.Background()

	req := paymentdomain.SubmitRequest{
		InvoiceID:   inv.ID,
		SubmittedBy: inv.UserID,
		TxHash:      "0xabc123",
		Amount:      250,
		Currency:    "USDT",
		Network:     "tron",
	}
	if _, err := f.payments.Submit(ctx, req); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if _, err := f.payments.Submit(ctx, req); err != paymentdomain.ErrDuplicateTxHash {
		t.Fatalf("expected ErrDuplicateTxHash, got %v", err)
	}
}

func TestVerifySettlesInvoiceAndNudgesCase(t *testing.T) {
	f := newFixture(t)
	c, inv := f.newInvoice(t)
	ctx := context.Background()

	payment, err := f.payments.Submit(ctx, paymentdomain.SubmitRequest{
		InvoiceID:   inv.ID,
		SubmittedBy: inv.UserID,
		TxHash:      "0xdeadbeef",
		Amount:      250,
		Currency:    "USDT",
		Network:     "tron",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	admin := f.node.Generate()
	verified, err := f.payments.Verify(ctx, payment.ID, admin)
	if err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if verified.ConfirmationStatus != paymentdomain.ConfirmationConfirmed {
		t.Fatalf("expected confirmed, got %s", verified.ConfirmationStatus)
	}
	if verified.VerifiedAt == nil || !verified.VerifiedAt.Equal(f.fake.Now()) {
		t.Fatalf("expected verified_at %v, got %v", f.fake.Now(), verified.VerifiedAt)
	}

	gotInv, err := f.invoices.GetByID(ctx, inv.ID.String())
	if err != nil {
		t.Fatalf("failed to fetch invoice: %v", err)
	}
	if gotInv.Status != invoicedomain.StatusPaid {
		t.Fatalf("expected invoice paid, got %s", gotInv.Status)
	}
	if gotInv.PaidAt == nil {
		t.Fatal("expected paid_at to be set")
	}

	gotCase, err := f.cases.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to fetch case: %v", err)
	}
	if gotCase.Status != casedomain.StatusInProgress {
		t.Fatalf("expected case in_progress, got %s", gotCase.Status)
	}

	if _, err := f.payments.Verify(ctx, payment.ID, admin); err != paymentdomain.ErrAlreadyConfirmed {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}
