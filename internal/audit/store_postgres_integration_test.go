//go:build integration

package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"spisok/internal/audit"
	"spisok/pkg/domain"
	"spisok/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "action_log"))
}

func (s *PostgresStoreSuite) seed(n int) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		kind := domain.KindRegistration
		if i%2 == 1 {
			kind = domain.KindAppeal
		}
		_, err := s.store.Append(ctx, audit.Entry{
			TargetKind: kind,
			TargetID:   fmt.Sprintf("%s-%d", kind, i),
			ActorID:    fmt.Sprintf("admin-%d", i%2),
			Action:     "review",
			FromStatus: "NEW",
			ToStatus:   "REVIEWED",
			Reason:     "checked",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}
}

func (s *PostgresStoreSuite) TestAppendAssignsID() {
	id, err := s.store.Append(context.Background(), audit.Entry{
		TargetKind: domain.KindSupportTicket,
		TargetID:   "T-1",
		ActorID:    "admin-1",
		Action:     "close",
		FromStatus: "NEW",
		ToStatus:   "CLOSED",
		Reason:     "resolved over the phone",
		Timestamp:  time.Now(),
	})
	s.Require().NoError(err)
	s.NotEmpty(id)
}

func (s *PostgresStoreSuite) TestQueryFiltersAndPaginates() {
	s.seed(10)
	ctx := context.Background()

	page, err := s.store.Query(ctx, audit.Filter{TargetKind: domain.KindAppeal})
	s.Require().NoError(err)
	s.Len(page.Entries, 5)

	first, err := s.store.Query(ctx, audit.Filter{Limit: 4})
	s.Require().NoError(err)
	s.Require().Len(first.Entries, 4)
	s.Require().NotEmpty(first.NextCursor)

	second, err := s.store.Query(ctx, audit.Filter{Limit: 4, Cursor: first.NextCursor})
	s.Require().NoError(err)
	s.Len(second.Entries, 4)
	s.NotEqual(first.Entries[0].ID, second.Entries[0].ID)

	third, err := s.store.Query(ctx, audit.Filter{Limit: 4, Cursor: second.NextCursor})
	s.Require().NoError(err)
	s.Len(third.Entries, 2)
	s.Empty(third.NextCursor)
}

func (s *PostgresStoreSuite) TestQueryTimeBounds() {
	s.seed(10)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	page, err := s.store.Query(context.Background(), audit.Filter{
		Since: base.Add(5 * time.Minute),
		Until: base.Add(7 * time.Minute),
	})
	s.Require().NoError(err)
	s.Len(page.Entries, 3)
}

func (s *PostgresStoreSuite) TestRecentNewestFirst() {
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := s.store.Append(ctx, audit.Entry{
			TargetKind: domain.KindVerification,
			TargetID:   "VER-1",
			ActorID:    "admin-1",
			Action:     fmt.Sprintf("action-%d", i),
			FromStatus: "WAITING",
			ToStatus:   "WAITING",
			Reason:     "step",
			Timestamp:  time.Now(),
		})
		s.Require().NoError(err)
	}

	recent, err := s.store.Recent(ctx, domain.KindVerification, "VER-1", 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("action-3", recent[0].Action)
	s.Equal("action-2", recent[1].Action)
}
