package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	"github.com/reclaimlabs/recoveryhub/internal/audit/repository"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&auditdomain.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func writeEntries(t *testing.T, svc auditdomain.Service, fake *clock.FakeClock, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if err := svc.AuditLog(ctx, "user", nil, "user.login", "user", nil, nil); err != nil {
			t.Fatalf("failed to write audit log: %v", err)
		}
		fake.Advance(time.Minute)
	}
}

func TestListPagesWithCursor(t *testing.T) {
	svc, fake := newTestService(t)
	writeEntries(t, svc, fake, 5)

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	page, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("failed to list first page: %v", err)
	}
	if len(page.AuditLogs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page.AuditLogs))
	}
	if !page.HasMore || page.NextPageToken == "" {
		t.Fatalf("expected more pages, got %+v", page.PageInfo)
	}
	// Newest first.
	if !page.AuditLogs[0].CreatedAt.After(page.AuditLogs[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}

	seen := map[snowflake.ID]bool{}
	for _, entry := range page.AuditLogs {
		seen[entry.ID] = true
	}

	req.PageToken = page.NextPageToken
	next, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("failed to list second page: %v", err)
	}
	if len(next.AuditLogs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(next.AuditLogs))
	}
	for _, entry := range next.AuditLogs {
		if seen[entry.ID] {
			t.Fatalf("entry %s repeated across pages", entry.ID)
		}
		seen[entry.ID] = true
	}

	req.PageToken = next.NextPageToken
	last, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("failed to list last page: %v", err)
	}
	if len(last.AuditLogs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(last.AuditLogs))
	}
	if last.HasMore {
		t.Fatal("expected final page")
	}
}

func TestListRejectsBadPageToken(t *testing.T) {
	svc, fake := newTestService(t)
	writeEntries(t, svc, fake, 1)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "not-a-token"
	if _, err := svc.List(context.Background(), req); err != auditdomain.ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestListRejectsInvertedTimeRange(t *testing.T) {
	svc, _ := newTestService(t)

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	if err != auditdomain.ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
