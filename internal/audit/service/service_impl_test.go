package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/audit/repository"
	"github.com/smallbiznis/folio/internal/clock"
	obscontext "github.com/smallbiznis/folio/internal/observability/context"
	"github.com/smallbiznis/folio/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAuditService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestAuditLogResolvesActorFromContext(t *testing.T) {
	svc, _ := setupAuditService(t)

	ctx := obscontext.WithActor(context.Background(), "Admin", "42")
	ctx = obscontext.WithClient(ctx, "10.0.0.1", "curl/8")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	target := "123"
	require.NoError(t, svc.AuditLog(ctx, "", nil, auditdomain.ActionPayoutApproved, "payout_request", &target, map[string]any{"amount": 500}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "admin", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "42", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.False(t, resp.HasMore)
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, _ := setupAuditService(t)

	require.NoError(t, svc.AuditLog(context.Background(), "", nil, auditdomain.ActionSaleRecorded, "", nil, nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), resp.AuditLogs[0].ActorType)
	assert.Equal(t, "unknown", resp.AuditLogs[0].TargetType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	svc, _ := setupAuditService(t)

	err := svc.AuditLog(context.Background(), "admin", nil, "  ", "sale", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, fake := setupAuditService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, "system", nil, auditdomain.ActionSaleRecorded, "sale", nil, map[string]any{"n": i}))
		fake.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 3)
	assert.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[2].CreatedAt))

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	page1, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, page1.AuditLogs, 2)
	require.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextPageToken)

	req.PageToken = page1.NextPageToken
	page2, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, page2.AuditLogs, 1)
	assert.False(t, page2.HasMore)
	assert.Equal(t, first.AuditLogs[2].ID, page2.AuditLogs[0].ID)
}

func TestListRejectsInvalidInput(t *testing.T) {
	svc, _ := setupAuditService(t)
	ctx := context.Background()

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "not-a-token"
	_, err = svc.List(ctx, req)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestListFiltersByActorAndTarget(t *testing.T) {
	svc, fake := setupAuditService(t)
	ctx := context.Background()

	ada, grace := "7", "8"
	payout := "900"
	require.NoError(t, svc.AuditLog(ctx, "author", &ada, auditdomain.ActionPayoutRequested, "payout_request", &payout, nil))
	fake.Advance(time.Minute)
	require.NoError(t, svc.AuditLog(ctx, "author", &grace, auditdomain.ActionPayoutRequested, "payout_request", nil, nil))
	fake.Advance(time.Minute)
	require.NoError(t, svc.AuditLog(ctx, "system", nil, auditdomain.ActionSaleRecorded, "sale", nil, nil))

	byActor, err := svc.List(ctx, auditdomain.ListAuditLogRequest{ActorType: "author", ActorID: ada})
	require.NoError(t, err)
	require.Len(t, byActor.AuditLogs, 1)
	assert.Equal(t, ada, *byActor.AuditLogs[0].ActorID)

	byTarget, err := svc.List(ctx, auditdomain.ListAuditLogRequest{TargetType: "payout_request", TargetID: payout})
	require.NoError(t, err)
	require.Len(t, byTarget.AuditLogs, 1)

	byAction, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: auditdomain.ActionPayoutRequested})
	require.NoError(t, err)
	assert.Len(t, byAction.AuditLogs, 2)

	from := time.Date(2024, 1, 5, 10, 1, 0, 0, time.UTC)
	recent, err := svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &from})
	require.NoError(t, err)
	assert.Len(t, recent.AuditLogs, 2)
}
