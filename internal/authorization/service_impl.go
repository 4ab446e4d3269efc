package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectCase          = "case"
	ObjectMessage       = "message"
	ObjectProgress      = "progress_update"
	ObjectInvoice       = "invoice"
	ObjectPaymentConfig = "payment_config"
	ObjectCryptoPayment = "crypto_payment"
	ObjectAttachment    = "attachment"
	ObjectWallet        = "wallet"
	ObjectUser          = "user"
	ObjectAuditLog      = "audit_log"
)

const (
	ActionCaseView         = "case.view"
	ActionCaseCreate       = "case.create"
	ActionCaseUpdateStatus = "case.update_status"

	ActionMessageView   = "message.view"
	ActionMessageCreate = "message.create"

	ActionProgressView   = "progress_update.view"
	ActionProgressCreate = "progress_update.create"

	ActionInvoiceView         = "invoice.view"
	ActionInvoiceCreate       = "invoice.create"
	ActionInvoiceUpdateStatus = "invoice.update_status"
	ActionInvoiceDelete       = "invoice.delete"

	ActionPaymentConfigView   = "payment_config.view"
	ActionPaymentConfigManage = "payment_config.manage"

	ActionCryptoPaymentSubmit = "crypto_payment.submit"
	ActionCryptoPaymentView   = "crypto_payment.view"
	ActionCryptoPaymentVerify = "crypto_payment.verify"

	ActionAttachmentUpload = "attachment.upload"
	ActionAttachmentView   = "attachment.view"
	ActionAttachmentPurge  = "attachment.purge"

	ActionWalletConnect = "wallet.connect"
	ActionWalletView    = "wallet.view"

	ActionUserView   = "user.view"
	ActionUserManage = "user.manage"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Roles    roledomain.Service
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	roles    roledomain.Service
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		roles:    p.Roles,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleNames, actorType, actorID, err := s.resolveActor(ctx, actor)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, object, action)
		return err
	}

	if err := s.ensureGrouping(subject, roleNames); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditGranted(ctx, actorType, actorID, object, action)
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string) (string, []string, string, *string, error) {
	if actor == "system" {
		return actor, []string{"role:system"}, "system", nil, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", nil, "", nil, ErrInvalidActor
		}
		userIDStr := userID.String()

		roles, err := s.roles.RolesForUser(ctx, userID)
		if err != nil {
			return actor, nil, "user", &userIDStr, err
		}
		if len(roles) == 0 {
			// Accounts with no explicit grant act as plain clients.
			roles = []roledomain.Role{roledomain.RoleUser}
		}
		roleNames := make([]string, 0, len(roles))
		for _, r := range roles {
			roleNames = append(roleNames, fmt.Sprintf("role:%s", strings.ToLower(string(r))))
		}
		return actor, roleNames, "user", &userIDStr, nil
	}
	return "", nil, "", nil, ErrInvalidActor
}

func (s *ServiceImpl) ensureGrouping(subject string, roleNames []string) error {
	wanted := make(map[string]bool, len(roleNames))
	for _, name := range roleNames {
		wanted[name] = true
	}

	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if wanted[rule[1]] {
			delete(wanted, rule[1])
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	for name := range wanted {
		if _, err := s.enforcer.AddGroupingPolicy(subject, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, actorType, actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
	})
}

func (s *ServiceImpl) auditGranted(ctx context.Context, actorType string, actorID *string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, actorType, actorID, "authorization.granted", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
	})
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionUserManage, ActionCryptoPaymentVerify, ActionPaymentConfigManage:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Client permissions
		{"role:user", ObjectCase, ActionCaseView},
		{"role:user", ObjectCase, ActionCaseCreate},
		{"role:user", ObjectMessage, ActionMessageView},
		{"role:user", ObjectMessage, ActionMessageCreate},
		{"role:user", ObjectProgress, ActionProgressView},
		{"role:user", ObjectInvoice, ActionInvoiceView},
		{"role:user", ObjectPaymentConfig, ActionPaymentConfigView},
		{"role:user", ObjectCryptoPayment, ActionCryptoPaymentSubmit},
		{"role:user", ObjectCryptoPayment, ActionCryptoPaymentView},
		{"role:user", ObjectAttachment, ActionAttachmentUpload},
		{"role:user", ObjectAttachment, ActionAttachmentView},
		{"role:user", ObjectWallet, ActionWalletConnect},
		{"role:user", ObjectWallet, ActionWalletView},

		// Moderator permissions
		{"role:moderator", ObjectCase, ActionCaseUpdateStatus},
		{"role:moderator", ObjectProgress, ActionProgressCreate},
		{"role:moderator", ObjectUser, ActionUserView},

		// Admin permissions
		{"role:admin", ObjectInvoice, ActionInvoiceCreate},
		{"role:admin", ObjectInvoice, ActionInvoiceUpdateStatus},
		{"role:admin", ObjectInvoice, ActionInvoiceDelete},
		{"role:admin", ObjectPaymentConfig, ActionPaymentConfigManage},
		{"role:admin", ObjectCryptoPayment, ActionCryptoPaymentVerify},
		{"role:admin", ObjectUser, ActionUserManage},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},

		// System permissions (background workers)
		{"role:system", ObjectCryptoPayment, ActionCryptoPaymentVerify},
		{"role:system", ObjectInvoice, ActionInvoiceUpdateStatus},
		{"role:system", ObjectAttachment, ActionAttachmentPurge},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Each staff role builds on the one below it.
	groupings := [][]string{
		{"role:moderator", "role:user"},
		{"role:admin", "role:moderator"},
	}
	for _, g := range groupings {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	return nil
}
