package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

func newMockDB(t *testing.T) (*PostgresStore, *SettingsPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), NewSettingsPostgres(db), mock
}

func sampleNotification() *models.Notification {
	return models.NewNotification(id.NotificationID(uuid.New()), id.AccountID(uuid.New()), id.LeaseID(uuid.New()),
		models.TypeLeaseExpiring, 30, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestCreateIfAbsent(t *testing.T) {
	insert := regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT notifications_lease_threshold_key DO NOTHING")

	t.Run("new row", func(t *testing.T) {
		st, _, mock := newMockDB(t)
		n := sampleNotification()
		mock.ExpectQuery(insert).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.UUID(n.ID).String()))

		created, err := st.CreateIfAbsent(context.Background(), n)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing threshold is skipped", func(t *testing.T) {
		st, _, mock := newMockDB(t)
		mock.ExpectQuery(insert).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		created, err := st.CreateIfAbsent(context.Background(), sampleNotification())
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("driver error", func(t *testing.T) {
		st, _, mock := newMockDB(t)
		mock.ExpectQuery(insert).WillReturnError(assert.AnError)

		_, err := st.CreateIfAbsent(context.Background(), sampleNotification())
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestFindByID(t *testing.T) {
	st, _, mock := newMockDB(t)
	n := sampleNotification()
	reason := "smtp timeout"
	columns := []string{"id", "account_id", "lease_id", "type", "days_before_expiration", "status",
		"sent_at", "error", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM notifications")).
		WithArgs(uuid.UUID(n.ID), uuid.UUID(n.AccountID)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			uuid.UUID(n.ID).String(), uuid.UUID(n.AccountID).String(), uuid.UUID(n.LeaseID).String(),
			"LEASE_EXPIRING", 30, "FAILED", nil, reason, n.CreatedAt, n.UpdatedAt))

	got, err := st.FindByID(context.Background(), n.AccountID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Nil(t, got.SentAt)
	require.NotNil(t, got.Error)
	assert.Equal(t, reason, *got.Error)

	mock.ExpectQuery(regexp.QuoteMeta("FROM notifications")).WillReturnRows(sqlmock.NewRows(columns))
	_, err = st.FindByID(context.Background(), n.AccountID, n.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpdate_MissingRowIsNotFound(t *testing.T) {
	st, _, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.Update(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestBuildListWhere(t *testing.T) {
	failed := models.StatusFailed
	leaseID := id.LeaseID(uuid.New())
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildListWhere(id.AccountID(uuid.New()), models.Filter{Status: &failed, LeaseID: &leaseID, CreatedFrom: &from})
	assert.Equal(t, "account_id = $1 AND status = $2 AND lease_id = $3 AND created_at >= $4", where)
	assert.Len(t, args, 4)
}

func TestSettingsGetOrCreate(t *testing.T) {
	_, st, mock := newMockDB(t)
	accountID := id.AccountID(uuid.New())
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notification_settings")).
		WithArgs(uuid.UUID(accountID), "{30}", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_settings")).
		WillReturnRows(sqlmock.NewRows([]string{"days_before_expiration", "created_at", "updated_at"}).
			AddRow("{7,30}", now, now))

	got, err := st.GetOrCreate(context.Background(), accountID, []int{30}, now)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 30}, got.Days, "an existing row wins over the defaults")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntArrayLiteral(t *testing.T) {
	assert.Equal(t, "{0,7,30}", intArrayLiteral([]int{0, 7, 30}))
	assert.Equal(t, "{}", intArrayLiteral(nil))
}
