package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin     = "admin"
	RoleAuthor    = "author"
	RolePublisher = "publisher"
	RoleCustomer  = "customer"
	RoleSystem    = "system"
)

const (
	ObjectCatalog  = "catalog"
	ObjectSale     = "sale"
	ObjectReport   = "report"
	ObjectPayout   = "payout"
	ObjectAuditLog = "audit_log"
)

const (
	ActionCatalogView   = "catalog.view"
	ActionCatalogManage = "catalog.manage"

	ActionSaleRecord = "sale.record"
	ActionSaleView   = "sale.view"

	// Own-scoped actions are granted to authors and publishers; the caller checks
	// that the requested author/publisher id matches the actor.
	ActionReportViewOwn = "report.view_own"
	ActionReportViewAll = "report.view_all"

	ActionPayoutRequest = "payout.request"
	ActionPayoutViewOwn = "payout.view_own"
	ActionPayoutViewAll = "payout.view_all"
	ActionPayoutProcess = "payout.process"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
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
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, actorID string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !validRole(role) {
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

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.auditDenied(ctx, role, actorID, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role string, actorID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	var id *string
	if trimmed := strings.TrimSpace(actorID); trimmed != "" {
		id = &trimmed
	}
	targetID := object
	_ = s.auditSvc.AuditLog(ctx, role, id, "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
	})
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAuthor, RolePublisher, RoleCustomer, RoleSystem:
		return true
	}
	return false
}

func roleSubject(role string) string {
	return fmt.Sprintf("role:%s", role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Admin manages everything.
		{"role:admin", "*", "*"},

		// Recipients see their own sales and request their own payouts.
		{"role:earner", ObjectCatalog, ActionCatalogView},
		{"role:earner", ObjectReport, ActionReportViewOwn},
		{"role:earner", ObjectPayout, ActionPayoutRequest},
		{"role:earner", ObjectPayout, ActionPayoutViewOwn},

		// Customers browse the catalog only.
		{"role:customer", ObjectCatalog, ActionCatalogView},

		// Checkout integration records sales.
		{"role:system", ObjectCatalog, ActionCatalogView},
		{"role:system", ObjectSale, ActionSaleRecord},
		{"role:system", ObjectSale, ActionSaleView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{"role:author", "role:earner"},
		{"role:publisher", "role:earner"},
	}
	for _, grouping := range groupings {
		if _, err := enforcer.AddGroupingPolicy(grouping); err != nil {
			return err
		}
	}
	return nil
}
