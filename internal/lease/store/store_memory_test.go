package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"leasekeeper/internal/lease/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/clock"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store     *InMemory
	accountID id.AccountID
	unitID    id.UnitID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.accountID = id.AccountID(uuid.New())
	s.unitID = id.UnitID(uuid.New())
}

func (s *InMemoryStoreSuite) lease(start, end string, status models.Status) *models.Lease {
	startDate, err := clock.ParseDate(start)
	s.Require().NoError(err)
	endDate, err := clock.ParseDate(end)
	s.Require().NoError(err)
	l := &models.Lease{
		ID:            id.LeaseID(uuid.New()),
		AccountID:     s.accountID,
		UnitID:        s.unitID,
		TenantID:      id.TenantID(uuid.New()),
		StartDate:     startDate,
		EndDate:       endDate,
		MonthlyRent:   decimal.NewFromInt(4000),
		PaymentTarget: "cash",
		Status:        status,
	}
	s.Require().NoError(s.store.Create(context.Background(), l))
	return l
}

func (s *InMemoryStoreSuite) TestScopedLookups() {
	ctx := context.Background()
	l := s.lease("2024-01-01", "2024-06-30", models.StatusActive)

	_, err := s.store.FindByID(ctx, id.AccountID(uuid.New()), l.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, id.AccountID(uuid.New()), l.ID), sentinel.ErrNotFound)
	s.NoError(s.store.Delete(ctx, s.accountID, l.ID))
	_, err = s.store.FindByID(ctx, s.accountID, l.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestReadsReturnCopies() {
	ctx := context.Background()
	notes := "original"
	l := s.lease("2024-01-01", "2024-06-30", models.StatusActive)
	l.Notes = &notes
	s.Require().NoError(s.store.Update(ctx, l))

	found, err := s.store.FindByID(ctx, s.accountID, l.ID)
	s.Require().NoError(err)
	*found.Notes = "mutated"
	found.Status = models.StatusTerminated

	again, err := s.store.FindByID(ctx, s.accountID, l.ID)
	s.Require().NoError(err)
	s.Equal("original", *again.Notes)
	s.Equal(models.StatusActive, again.Status)
}

func (s *InMemoryStoreSuite) TestListBlockingSkipsFinishedLeases() {
	ctx := context.Background()
	active := s.lease("2024-01-01", "2024-06-30", models.StatusActive)
	future := s.lease("2025-01-01", "2025-06-30", models.StatusFuture)
	s.lease("2023-01-01", "2023-06-30", models.StatusExpired)
	s.lease("2023-07-01", "2023-12-31", models.StatusTerminated)

	blocking, err := s.store.ListBlocking(ctx, s.accountID, s.unitID)
	s.Require().NoError(err)
	ids := []id.LeaseID{}
	for _, l := range blocking {
		ids = append(ids, l.ID)
	}
	s.ElementsMatch([]id.LeaseID{active.ID, future.ID}, ids)
}

func (s *InMemoryStoreSuite) TestListPaginatesNewestStartFirst() {
	ctx := context.Background()
	oldest := s.lease("2022-01-01", "2022-06-30", models.StatusExpired)
	middle := s.lease("2023-01-01", "2023-06-30", models.StatusExpired)
	newest := s.lease("2024-01-01", "2024-06-30", models.StatusActive)

	page1, total, err := s.store.List(ctx, s.accountID, models.Filter{Page: 1, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page1, 2)
	s.Equal(newest.ID, page1[0].ID)
	s.Equal(middle.ID, page1[1].ID)

	page2, _, err := s.store.List(ctx, s.accountID, models.Filter{Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Require().Len(page2, 1)
	s.Equal(oldest.ID, page2[0].ID)

	page3, total, err := s.store.List(ctx, s.accountID, models.Filter{Page: 3, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Empty(page3)
}

func (s *InMemoryStoreSuite) TestListByEndDate() {
	ctx := context.Background()
	target := s.lease("2024-01-01", "2024-06-30", models.StatusActive)
	s.lease("2023-01-01", "2024-06-30", models.StatusTerminated)
	s.lease("2024-07-01", "2024-12-31", models.StatusFuture)

	day, _ := clock.ParseDate("2024-06-30")
	exact, err := s.store.ListByEndDate(ctx, s.accountID, &day, day, models.BlockingStatuses)
	s.Require().NoError(err)
	s.Require().Len(exact, 1)
	s.Equal(target.ID, exact[0].ID)

	horizon, _ := clock.ParseDate("2025-01-01")
	all, err := s.store.ListByEndDate(ctx, s.accountID, nil, horizon, nil)
	s.Require().NoError(err)
	s.Len(all, 3)
	s.True(!all[0].EndDate.After(all[2].EndDate), "ordered by end date")
}

func (s *InMemoryStoreSuite) TestUpdateKeepsTerminatedLeasesTerminated() {
	ctx := context.Background()
	l := s.lease("2024-01-01", "2024-06-30", models.StatusTerminated)

	revived := *l
	revived.Status = models.StatusActive
	s.ErrorIs(s.store.Update(ctx, &revived), sentinel.ErrInvalidState)

	notes := "keys returned"
	l.Notes = &notes
	s.NoError(s.store.Update(ctx, l), "terminated to terminated is allowed")

	found, err := s.store.FindByID(ctx, s.accountID, l.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusTerminated, found.Status)
}

func (s *InMemoryStoreSuite) TestListStatusAsOfToday() {
	ctx := context.Background()
	stale := s.lease("2024-01-01", "2024-03-31", models.StatusActive)
	s.lease("2023-01-01", "2023-06-30", models.StatusTerminated)

	expired := models.StatusExpired
	items, total, err := s.store.List(ctx, s.accountID, models.Filter{
		Status: &expired, Today: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), Page: 1, PageSize: 10,
	})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(stale.ID, items[0].ID)

	_, total, err = s.store.List(ctx, s.accountID, models.Filter{Status: &expired, Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Zero(total, "without Today the stored status is compared")
}

func TestUpdateStatus_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	st := NewInMemory()
	l := &models.Lease{ID: id.LeaseID(uuid.New()), AccountID: id.AccountID(uuid.New()), Status: models.StatusActive}
	require.NoError(t, st.Create(ctx, l))

	now := time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, st.UpdateStatus(ctx, l.ID, models.StatusFuture, models.StatusActive, now), sentinel.ErrInvalidState)
	assert.NoError(t, st.UpdateStatus(ctx, l.ID, models.StatusActive, models.StatusExpired, now))
	assert.ErrorIs(t, st.UpdateStatus(ctx, id.LeaseID(uuid.New()), models.StatusActive, models.StatusExpired, now), sentinel.ErrNotFound)

	found, err := st.FindByID(ctx, l.AccountID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, found.Status)
	assert.Equal(t, now, found.UpdatedAt)
}
