package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/testutil"
)

type InMemorySuite struct {
	suite.Suite
	store     *InMemory
	accountID id.AccountID
	leaseID   id.LeaseID
	now       time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.accountID = id.AccountID(uuid.New())
	s.leaseID = id.LeaseID(uuid.New())
	s.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemorySuite) newNotification(days int) *models.Notification {
	return models.NewNotification(id.NotificationID(uuid.New()), s.accountID, s.leaseID, models.TypeLeaseExpiring, days, s.now)
}

func (s *InMemorySuite) TestCreateIfAbsent_UniquePerThreshold() {
	ctx := context.Background()
	created, err := s.store.CreateIfAbsent(ctx, s.newNotification(30))
	s.Require().NoError(err)
	s.True(created)

	created, err = s.store.CreateIfAbsent(ctx, s.newNotification(30))
	s.Require().NoError(err)
	s.False(created)

	created, err = s.store.CreateIfAbsent(ctx, s.newNotification(7))
	s.Require().NoError(err)
	s.True(created)
}

func (s *InMemorySuite) TestCreateIfAbsent_ConcurrentCallersInsertOnce() {
	ctx := context.Background()
	var inserted atomic.Int32
	result := testutil.RunConcurrent(25, func(int) error {
		created, err := s.store.CreateIfAbsent(ctx, s.newNotification(14))
		if created {
			inserted.Add(1)
		}
		return err
	})
	s.Equal(int32(25), result.Successes)
	s.Equal(int32(1), inserted.Load())

	pending, err := s.store.ListByStatus(ctx, s.accountID, models.StatusPending)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *InMemorySuite) TestResetFailed_AllOrNothing() {
	ctx := context.Background()
	failed := s.newNotification(30)
	failed.MarkFailed("bounced", s.now)
	pending := s.newNotification(7)
	for _, n := range []*models.Notification{failed, pending} {
		_, err := s.store.CreateIfAbsent(ctx, n)
		s.Require().NoError(err)
	}

	err := s.store.ResetFailed(ctx, s.accountID, []id.NotificationID{failed.ID, pending.ID}, s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState)
	got, _ := s.store.FindByID(ctx, s.accountID, failed.ID)
	s.Equal(models.StatusFailed, got.Status, "no row changes on rejection")

	err = s.store.ResetFailed(ctx, id.AccountID(uuid.New()), []id.NotificationID{failed.ID}, s.now)
	s.ErrorIs(err, sentinel.ErrInvalidState, "other scopes cannot reset")

	s.Require().NoError(s.store.ResetFailed(ctx, s.accountID, []id.NotificationID{failed.ID}, s.now))
	got, _ = s.store.FindByID(ctx, s.accountID, failed.ID)
	s.Equal(models.StatusPending, got.Status)
	s.Nil(got.Error)
}

func (s *InMemorySuite) TestListNewestFirstAndDeleteByLease() {
	ctx := context.Background()
	older := s.newNotification(30)
	newer := s.newNotification(7)
	newer.CreatedAt = s.now.Add(time.Hour)
	_, _ = s.store.CreateIfAbsent(ctx, older)
	_, _ = s.store.CreateIfAbsent(ctx, newer)

	items, total, err := s.store.List(ctx, s.accountID, models.Filter{Page: 1, PageSize: 1})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(items, 1)
	s.Equal(newer.ID, items[0].ID)

	s.Require().NoError(s.store.DeleteByLease(ctx, s.accountID, s.leaseID))
	_, total, err = s.store.List(ctx, s.accountID, models.Filter{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Zero(total)

	created, err := s.store.CreateIfAbsent(ctx, s.newNotification(30))
	s.Require().NoError(err)
	s.True(created, "threshold index is cleared with the rows")
}

func (s *InMemorySuite) TestSettings() {
	ctx := context.Background()
	settings := NewSettingsInMemory()

	got, err := settings.GetOrCreate(ctx, s.accountID, models.DefaultThresholds, s.now)
	s.Require().NoError(err)
	s.Equal([]int{30}, got.Days)

	got.Days = []int{7, 14}
	got.UpdatedAt = s.now.Add(time.Hour)
	s.Require().NoError(settings.Save(ctx, got))

	again, err := settings.GetOrCreate(ctx, s.accountID, models.DefaultThresholds, s.now)
	s.Require().NoError(err)
	s.Equal([]int{7, 14}, again.Days)
	s.Equal(s.now, again.CreatedAt)
}
