package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spisok/internal/audit"
	"spisok/internal/links"
	"spisok/internal/moderation/models"
	"spisok/internal/moderation/store"
	"spisok/internal/policy"
	"spisok/internal/usage"
	"spisok/pkg/domain"
	dErrors "spisok/pkg/domain-errors"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service *Service
	stores  *store.Stores
	ledger  *audit.InMemoryStore
	linker  *links.InMemoryLinker
	usage   *usage.InMemoryRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stores: store.NewStores(),
		ledger: audit.NewInMemoryStore(),
		linker: links.NewInMemoryLinker(),
		usage:  usage.NewInMemoryRecorder(),
	}
	f.service = New(f.stores, f.ledger, f.linker, f.usage)
	return f
}

func (f *fixture) verification(t *testing.T, companyID string, status string, createdAt time.Time) *models.Verification {
	t.Helper()
	ver, err := models.NewVerification(companyID, nil, createdAt, "admin-1")
	require.NoError(t, err)
	ver.SetStatus(models.VerificationWaiting)
	switch status {
	case "waiting":
	case "need_info":
		ver.SetStatus(models.VerificationNeedInfo)
	case "approved":
		ver.SetStatus(models.VerificationApproved)
	}
	require.NoError(t, f.stores.Verifications.Create(context.Background(), ver))
	return ver
}

func TestListOrdersByAttentionThenAge(t *testing.T) {
	f := newFixture(t)
	approved := f.verification(t, "company-a", "approved", baseTime)
	needInfo := f.verification(t, "company-b", "need_info", baseTime.Add(time.Hour))
	waitingOld := f.verification(t, "company-c", "waiting", baseTime.Add(time.Minute))
	waitingNew := f.verification(t, "company-d", "waiting", baseTime.Add(2*time.Hour))

	result, err := f.service.List(context.Background(), ListInput{Kind: domain.KindVerification})
	require.NoError(t, err)
	require.Len(t, result.Items, 4)
	assert.Equal(t, 4, result.Total)

	assert.Equal(t, waitingOld.ID, result.Items[0].Target.ID)
	assert.Equal(t, waitingNew.ID, result.Items[1].Target.ID)
	assert.Equal(t, needInfo.ID, result.Items[2].Target.ID)
	assert.Equal(t, approved.ID, result.Items[3].Target.ID)
}

func TestListStatusFilter(t *testing.T) {
	f := newFixture(t)
	f.verification(t, "company-a", "waiting", baseTime)
	f.verification(t, "company-b", "approved", baseTime)

	result, err := f.service.List(context.Background(), ListInput{
		Kind:   domain.KindVerification,
		Status: models.VerificationApproved,
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "company-b", result.Items[0].Subject)
}

func TestListSearchMatchesIDAndSubject(t *testing.T) {
	f := newFixture(t)
	ver := f.verification(t, "ACME-Logistics", "waiting", baseTime)
	f.verification(t, "other", "waiting", baseTime)

	result, err := f.service.List(context.Background(), ListInput{
		Kind:   domain.KindVerification,
		Search: "acme",
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, ver.ID, result.Items[0].Target.ID)

	result, err = f.service.List(context.Background(), ListInput{
		Kind:   domain.KindVerification,
		Search: ver.ID,
	})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.verification(t, "company", "waiting", baseTime.Add(time.Duration(i)*time.Minute))
	}

	page, err := f.service.List(context.Background(), ListInput{
		Kind:   domain.KindVerification,
		Offset: 3,
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 5, page.Total)

	page, err = f.service.List(context.Background(), ListInput{
		Kind:   domain.KindVerification,
		Offset: 10,
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Total)
}

func TestListUnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.List(context.Background(), ListInput{Kind: "reviews"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestAccessSummariesCarryEffectiveStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	access, err := models.NewCompanyAccess("company-1", 2, true, baseTime, "admin-1")
	require.NoError(t, err)
	require.NoError(t, f.stores.Access.Create(ctx, access))

	for i := 0; i < 2; i++ {
		_, err := f.usage.Increment(ctx, "company-1")
		require.NoError(t, err)
	}

	result, err := f.service.List(ctx, ListInput{Kind: domain.KindCompanyAccess})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, string(policy.EffectiveBlocked), item.EffectiveStatus)
	assert.Equal(t, int64(2), item.ChecksUsed)
	assert.Equal(t, int64(2), item.CheckLimit)
	// Persisted status is untouched by the derived state.
	assert.Equal(t, models.AccessActive, item.Status)
}

func TestDetailReturnsLinksHistoryAndActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ver := f.verification(t, "company-1", "waiting", baseTime)

	ticketRef := domain.Ref{Kind: domain.KindSupportTicket, ID: "T-1"}
	require.NoError(t, f.linker.Link(ctx, ver.Ref(), ticketRef))

	for _, action := range []string{"created", "request_info", "info_received"} {
		_, err := f.ledger.Append(ctx, audit.Entry{
			TargetKind: domain.KindVerification,
			TargetID:   ver.ID,
			Action:     action,
		})
		require.NoError(t, err)
	}

	detail, err := f.service.Detail(ctx, ver.Ref())
	require.NoError(t, err)

	got, ok := detail.Entity.(*models.Verification)
	require.True(t, ok)
	assert.Equal(t, ver.ID, got.ID)

	assert.Equal(t, []domain.Ref{ticketRef}, detail.Links)

	require.Len(t, detail.History, 3)
	assert.Equal(t, "info_received", detail.History[0].Action)

	assert.Contains(t, detail.Actions, models.ActionApprove)
	assert.Contains(t, detail.Actions, models.ActionRequestInfo)
	assert.NotContains(t, detail.Actions, models.ActionInfoReceived)
	assert.Nil(t, detail.Access)
}

func TestDetailAccessView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	access, err := models.NewCompanyAccess("company-1", 10, true, baseTime, "admin-1")
	require.NoError(t, err)
	require.NoError(t, f.stores.Access.Create(ctx, access))
	_, err = f.usage.Increment(ctx, "company-1")
	require.NoError(t, err)

	detail, err := f.service.Detail(ctx, access.Ref())
	require.NoError(t, err)
	require.NotNil(t, detail.Access)
	assert.Equal(t, int64(1), detail.Access.ChecksUsed)
	assert.Equal(t, string(policy.EffectiveActive), detail.Access.EffectiveStatus)
}

func TestDetailNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Detail(context.Background(), domain.Ref{Kind: domain.KindAppeal, ID: "A-missing"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAuditPassesFilterThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.ledger.Append(ctx, audit.Entry{
			TargetKind: domain.KindAppeal,
			TargetID:   "A-1",
			ActorID:    "admin-1",
			Action:     "resolve",
		})
		require.NoError(t, err)
	}

	page, err := f.service.Audit(ctx, audit.Filter{TargetKind: domain.KindAppeal, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2)
	assert.NotEmpty(t, page.NextCursor)
}
