package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (casedomain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&casedomain.Case{}, &casedomain.Message{}, &casedomain.ProgressUpdate{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	return svc, node
}

func TestCreateCaseReference(t *testing.T) {
	svc, node := newTestService(t)

	c, err := svc.Create(context.Background(), casedomain.CreateCaseRequest{
		UserID:   node.Generate(),
		Title:    "Lost Funds After Exchange Freeze",
		CaseType: "crypto_recovery",
	})
	if err != nil {
		t.Fatalf("failed to create case: %v", err)
	}
	if c.Status != casedomain.StatusPending {
		t.Fatalf("expected pending, got %s", c.Status)
	}
	if !strings.HasPrefix(c.Reference, "lost-funds-after-exchange-freeze-") {
		t.Fatalf("unexpected reference %q", c.Reference)
	}

	byRef, err := svc.GetByReference(context.Background(), c.Reference)
	if err != nil {
		t.Fatalf("failed to fetch by reference: %v", err)
	}
	if byRef.ID != c.ID {
		t.Fatalf("expected case %d, got %d", c.ID, byRef.ID)
	}
}

func TestListFiltersByOwner(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	alice := node.Generate()
	bob := node.Generate()
	for _, owner := range []snowflake.ID{alice, alice, bob} {
		if _, err := svc.Create(ctx, casedomain.CreateCaseRequest{
			UserID:   owner,
			Title:    "Wire fraud report",
			CaseType: "wire_fraud",
		}); err != nil {
			t.Fatalf("failed to create case: %v", err)
		}
	}

	mine, err := svc.List(ctx, casedomain.ListCaseRequest{UserID: alice})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(mine))
	}

	all, err := svc.List(ctx, casedomain.ListCaseRequest{})
	if err != nil {
		t.Fatalf("failed to list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(all))
	}
}

func TestNudgeInProgressOnlyFromPending(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, casedomain.CreateCaseRequest{
		UserID:   node.Generate(),
		Title:    "Romance scam",
		CaseType: "romance_scam",
	})
	if err != nil {
		t.Fatalf("failed to create case: %v", err)
	}

	if err := svc.NudgeInProgress(ctx, c.ID); err != nil {
		t.Fatalf("failed to nudge: %v", err)
	}
	got, err := svc.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}
	if got.Status != casedomain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", got.Status)
	}

	if _, err := svc.UpdateStatus(ctx, c.ID, casedomain.StatusResolved); err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if err := svc.NudgeInProgress(ctx, c.ID); err != nil {
		t.Fatalf("nudge on resolved case should be a no-op, got %v", err)
	}
	got, err = svc.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}
	if got.Status != casedomain.StatusResolved {
		t.Fatalf("expected resolved, got %s", got.Status)
	}
}

func TestMessagesMarkRead(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	owner := node.Generate()
	staff := node.Generate()
	c, err := svc.Create(ctx, casedomain.CreateCaseRequest{
		UserID:   owner,
		Title:    "Investment scheme",
		CaseType: "investment_fraud",
	})
	if err != nil {
		t.Fatalf("failed to create case: %v", err)
	}

	if _, err := svc.AddMessage(ctx, casedomain.AddMessageRequest{CaseID: c.ID, SenderID: staff, Body: "We reviewed your report."}); err != nil {
		t.Fatalf("failed to add message: %v", err)
	}
	if _, err := svc.AddMessage(ctx, casedomain.AddMessageRequest{CaseID: c.ID, SenderID: owner, Body: "Thank you."}); err != nil {
		t.Fatalf("failed to add message: %v", err)
	}

	if err := svc.MarkRead(ctx, c.ID, owner); err != nil {
		t.Fatalf("failed to mark read: %v", err)
	}

	msgs, err := svc.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		wantRead := m.SenderID == staff
		if m.Read != wantRead {
			t.Fatalf("message from %d: read=%v want %v", m.SenderID, m.Read, wantRead)
		}
	}
}

func TestAddProgressRequiresStage(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, casedomain.CreateCaseRequest{
		UserID:   node.Generate(),
		Title:    "Phishing loss",
		CaseType: "phishing",
	})
	if err != nil {
		t.Fatalf("failed to create case: %v", err)
	}

	if _, err := svc.AddProgress(ctx, casedomain.AddProgressRequest{CaseID: c.ID, AuthorID: node.Generate()}); err != casedomain.ErrInvalidStage {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}

	if _, err := svc.AddProgress(ctx, casedomain.AddProgressRequest{
		CaseID:   c.ID,
		AuthorID: node.Generate(),
		Stage:    "evidence_review",
		Note:     "Documents forwarded to the investigation team.",
	}); err != nil {
		t.Fatalf("failed to add progress: %v", err)
	}

	updates, err := svc.ListProgress(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list progress: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
}
