package authorization

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	rolerepository "github.com/reclaimlabs/recoveryhub/internal/role/repository"
	roleservice "github.com/reclaimlabs/recoveryhub/internal/role/service"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

func newTestAuthorization(t *testing.T) (Service, roledomain.Service, *snowflake.Node) {
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

	roles := roleservice.New(roleservice.Params{
		Log:   zap.NewNop(),
		Repo:  rolerepository.New(dbConn),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})

	enforcer, err := NewEnforcer(dbConn)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}

	svc := NewService(Params{
		Log:      zap.NewNop(),
		Enforcer: enforcer,
		Roles:    roles,
	})
	return svc, roles, node
}

func TestClientCannotCreateInvoice(t *testing.T) {
	svc, roles, node := newTestAuthorization(t)
	ctx := context.Background()

	client := node.Generate()
	if err := roles.Assign(ctx, client, roledomain.RoleUser, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	actor := "user:" + client.String()
	if err := svc.Authorize(ctx, actor, ObjectCase, ActionCaseCreate); err != nil {
		t.Fatalf("client should open cases, got %v", err)
	}
	if err := svc.Authorize(ctx, actor, ObjectInvoice, ActionInvoiceCreate); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdminInheritsClientCapabilities(t *testing.T) {
	svc, roles, node := newTestAuthorization(t)
	ctx := context.Background()

	admin := node.Generate()
	if err := roles.Assign(ctx, admin, roledomain.RoleAdmin, nil); err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	actor := "user:" + admin.String()
	for _, check := range []struct {
		object string
		action string
	}{
		{ObjectInvoice, ActionInvoiceCreate},
		{ObjectCase, ActionCaseUpdateStatus},
		{ObjectCase, ActionCaseView},
		{ObjectUser, ActionUserManage},
		{ObjectAuditLog, ActionAuditLogView},
	} {
		if err := svc.Authorize(ctx, actor, check.object, check.action); err != nil {
			t.Fatalf("admin denied %s on %s: %v", check.action, check.object, err)
		}
	}
}

func TestSystemActorVerifiesPayments(t *testing.T) {
	svc, _, _ := newTestAuthorization(t)
	ctx := context.Background()

	if err := svc.Authorize(ctx, "system", ObjectCryptoPayment, ActionCryptoPaymentVerify); err != nil {
		t.Fatalf("system should verify payments, got %v", err)
	}
	if err := svc.Authorize(ctx, "system", ObjectUser, ActionUserManage); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUnknownActorRejected(t *testing.T) {
	svc, _, _ := newTestAuthorization(t)

	if err := svc.Authorize(context.Background(), "api_key:123", ObjectCase, ActionCaseView); err != ErrInvalidActor {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
}
