package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"github.com/reclaimlabs/recoveryhub/internal/role/repository"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (roledomain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&roledomain.UserRole{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		Log:   zap.NewNop(),
		Repo:  repository.New(dbConn),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	return svc, node
}

func TestRemoveLastAdminRejected(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	admin := node.Generate()
	if err := svc.Assign(ctx, admin, roledomain.RoleAdmin, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	err := svc.Remove(ctx, admin, roledomain.RoleAdmin)
	if err != roledomain.ErrLastAdmin {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}

	has, err := svc.HasRole(ctx, admin, roledomain.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to check role: %v", err)
	}
	if !has {
		t.Fatal("admin role should still be present")
	}
}

func TestRemoveAdminWithAnotherRemaining(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	first := node.Generate()
	second := node.Generate()
	if err := svc.Assign(ctx, first, roledomain.RoleAdmin, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}
	if err := svc.Assign(ctx, second, roledomain.RoleAdmin, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	if err := svc.Remove(ctx, first, roledomain.RoleAdmin); err != nil {
		t.Fatalf("expected removal to succeed, got %v", err)
	}

	count, err := svc.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("failed to count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 admin, got %d", count)
	}
}

func TestEnsureUserDeletable(t *testing.T) {
	svc, node := newTestService(t)
	ctx := context.Background()

	admin := node.Generate()
	client := node.Generate()
	if err := svc.Assign(ctx, admin, roledomain.RoleAdmin, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}
	if err := svc.Assign(ctx, client, roledomain.RoleUser, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	if err := svc.EnsureUserDeletable(ctx, client); err != nil {
		t.Fatalf("non-admin should be deletable, got %v", err)
	}
	if err := svc.EnsureUserDeletable(ctx, admin); err != roledomain.ErrLastAdmin {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}
}

func TestAssignInvalidRole(t *testing.T) {
	svc, node := newTestService(t)

	err := svc.Assign(context.Background(), node.Generate(), roledomain.Role("superuser"), nil)
	if err != roledomain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
