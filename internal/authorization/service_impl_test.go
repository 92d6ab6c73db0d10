package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/folio/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeRoles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{RoleAdmin, ObjectPayout, ActionPayoutProcess, true},
		{RoleAdmin, ObjectReport, ActionReportViewAll, true},
		{RoleAuthor, ObjectReport, ActionReportViewOwn, true},
		{RoleAuthor, ObjectReport, ActionReportViewAll, false},
		{RolePublisher, ObjectPayout, ActionPayoutRequest, true},
		{RolePublisher, ObjectPayout, ActionPayoutProcess, false},
		{RoleCustomer, ObjectCatalog, ActionCatalogView, true},
		{RoleCustomer, ObjectReport, ActionReportViewOwn, false},
		{RoleSystem, ObjectSale, ActionSaleRecord, true},
		{RoleAuthor, ObjectSale, ActionSaleRecord, false},
	}
	for _, tc := range cases {
		t.Run(tc.role+"/"+tc.action, func(t *testing.T) {
			err := svc.Authorize(ctx, tc.role, "7", tc.object, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeRejectsUnknownActor(t *testing.T) {
	svc := newTestService(t)

	err := svc.Authorize(context.Background(), "", "1", ObjectCatalog, ActionCatalogView)
	assert.ErrorIs(t, err, ErrInvalidActor)

	err = svc.Authorize(context.Background(), "owner", "1", ObjectCatalog, ActionCatalogView)
	assert.ErrorIs(t, err, ErrInvalidActor)

	err = svc.Authorize(context.Background(), RoleAdmin, "1", "", ActionCatalogView)
	assert.ErrorIs(t, err, ErrInvalidObject)
}

func TestSeedIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	_, err = NewEnforcer(conn)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	ok, err := enforcer.Enforce("role:author", ObjectPayout, ActionPayoutRequest)
	require.NoError(t, err)
	assert.True(t, ok)
}
