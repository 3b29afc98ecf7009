//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"leasekeeper/internal/lease/models"
	"leasekeeper/internal/lease/store"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/clock"
	"leasekeeper/pkg/testutil"
	"leasekeeper/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	fixture  containers.Fixture
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.fixture = s.postgres.CreateFixture(ctx, s.T())
}

func (s *PostgresStoreSuite) newLease(start, end string) *models.Lease {
	startDate, _ := clock.ParseDate(start)
	endDate, _ := clock.ParseDate(end)
	l, err := models.NewLease(id.LeaseID(uuid.New()), s.fixture.AccountID, s.fixture.UnitID, s.fixture.TenantID,
		startDate, endDate, decimal.RequireFromString("3200.00"), "Leumi 800-12345", nil,
		time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	return l
}

// TestExclusionConstraintRejectsBoundaryTouch checks that the database
// enforces inclusive non-overlap even without the service-level check.
func (s *PostgresStoreSuite) TestExclusionConstraintRejectsBoundaryTouch() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newLease("2024-01-01", "2024-06-30")))

	err := s.store.Create(ctx, s.newLease("2024-06-30", "2024-12-31"))
	s.ErrorIs(err, sentinel.ErrConflict)

	s.NoError(s.store.Create(ctx, s.newLease("2024-07-01", "2024-12-31")))
}

func (s *PostgresStoreSuite) TestTerminatedLeaseReleasesUnit() {
	ctx := context.Background()
	first := s.newLease("2024-01-01", "2024-06-30")
	s.Require().NoError(s.store.Create(ctx, first))

	first.Terminate(time.Now())
	s.Require().NoError(s.store.Update(ctx, first))

	s.NoError(s.store.Create(ctx, s.newLease("2024-03-01", "2024-12-31")))
}

// TestStaleWriteCannotReviveTerminatedLease replays an update whose read
// happened before a terminate committed.
func (s *PostgresStoreSuite) TestStaleWriteCannotReviveTerminatedLease() {
	ctx := context.Background()
	l := s.newLease("2024-01-01", "2024-12-31")
	s.Require().NoError(s.store.Create(ctx, l))

	stale, err := s.store.FindByID(ctx, s.fixture.AccountID, l.ID)
	s.Require().NoError(err)

	terminated := *l
	terminated.Terminate(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Update(ctx, &terminated))

	stale.PaymentTarget = "cash"
	s.ErrorIs(s.store.Update(ctx, stale), sentinel.ErrInvalidState)

	found, err := s.store.FindByID(ctx, s.fixture.AccountID, l.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusTerminated, found.Status)
	s.Equal("Leumi 800-12345", found.PaymentTarget)
}

func (s *PostgresStoreSuite) TestDatesRoundTripAsCalendarDays() {
	ctx := context.Background()
	l := s.newLease("2024-02-29", "2025-02-28")
	s.Require().NoError(s.store.Create(ctx, l))

	found, err := s.store.FindByID(ctx, s.fixture.AccountID, l.ID)
	s.Require().NoError(err)
	s.Equal("2024-02-29", clock.FormatDate(found.StartDate))
	s.Equal("2025-02-28", clock.FormatDate(found.EndDate))
	s.True(found.MonthlyRent.Equal(decimal.RequireFromString("3200")))
}

// TestConcurrentCreatesOnOneUnit races overlapping inserts, each inside its
// own transaction holding the unit lock. Exactly one may win.
func (s *PostgresStoreSuite) TestConcurrentCreatesOnOneUnit() {
	ctx := context.Background()

	result := testutil.RunConcurrent(10, func(int) error {
		tx, err := s.postgres.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		txStore := store.NewPostgresTx(tx)
		if err := txStore.LockUnit(ctx, s.fixture.AccountID, s.fixture.UnitID); err != nil {
			return err
		}
		candidate := s.newLease("2024-01-01", "2024-12-31")
		existing, err := txStore.ListBlocking(ctx, s.fixture.AccountID, s.fixture.UnitID)
		if err != nil {
			return err
		}
		if models.HasConflict(candidate.AccountID, candidate.UnitID, candidate.Period(), nil, existing) {
			return sentinel.ErrConflict
		}
		if err := txStore.Create(ctx, candidate); err != nil {
			return err
		}
		return tx.Commit()
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.Conflicts)
}

func (s *PostgresStoreSuite) TestListFiltersAndSearchSets() {
	ctx := context.Background()
	a := s.newLease("2023-01-01", "2023-06-30")
	b := s.newLease("2024-01-01", "2024-06-30")
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, b))

	status := models.StatusActive
	items, total, err := s.store.List(ctx, s.fixture.AccountID, models.Filter{Status: &status, Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(b.ID, items[0].ID)

	expired := models.StatusExpired
	items, total, err = s.store.List(ctx, s.fixture.AccountID, models.Filter{
		Status: &expired, Today: time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), Page: 1, PageSize: 10,
	})
	s.Require().NoError(err)
	s.Equal(2, total, "the stored ACTIVE row has ended by then too")

	_, total, err = s.store.List(ctx, s.fixture.AccountID, models.Filter{
		Search: true, MatchTenantIDs: []id.TenantID{}, MatchUnitIDs: []id.UnitID{}, Page: 1, PageSize: 10,
	})
	s.Require().NoError(err)
	s.Equal(0, total)

	items, total, err = s.store.List(ctx, s.fixture.AccountID, models.Filter{
		Search: true, MatchTenantIDs: []id.TenantID{s.fixture.TenantID}, Page: 1, PageSize: 1,
	})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(b.ID, items[0].ID, "newest start date first")
}
