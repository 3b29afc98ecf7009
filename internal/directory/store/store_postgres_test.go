package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasekeeper/internal/directory/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestFind_ScopedByAccount(t *testing.T) {
	accountID := id.AccountID(uuid.New())

	t.Run("unit", func(t *testing.T) {
		st, mock := newMockStore(t)
		unitID := id.UnitID(uuid.New())
		mock.ExpectQuery(`FROM units\s+WHERE id = \$1 AND account_id = \$2`).
			WithArgs(uuid.UUID(unitID), uuid.UUID(accountID)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "property_id", "apartment_number", "created_at"}))

		_, err := st.FindUnit(context.Background(), accountID, unitID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("property", func(t *testing.T) {
		st, mock := newMockStore(t)
		propertyID := id.PropertyID(uuid.New())
		mock.ExpectQuery(regexp.QuoteMeta("FROM properties")).
			WithArgs(uuid.UUID(propertyID), uuid.UUID(accountID)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "address", "created_at"}))

		_, err := st.FindProperty(context.Background(), accountID, propertyID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tenant", func(t *testing.T) {
		st, mock := newMockStore(t)
		tenantID := id.TenantID(uuid.New())
		mock.ExpectQuery(regexp.QuoteMeta("FROM tenants")).
			WithArgs(uuid.UUID(tenantID), uuid.UUID(accountID)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "name", "email", "phone", "created_at"}))

		_, err := st.FindTenant(context.Background(), accountID, tenantID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateUnit_UniqueViolationIsDuplicate(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO units")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := st.CreateUnit(context.Background(), &models.Unit{
		ID: id.UnitID(uuid.New()), AccountID: id.AccountID(uuid.New()), PropertyID: id.PropertyID(uuid.New()), ApartmentNumber: "1",
	})
	assert.ErrorIs(t, err, sentinel.ErrDuplicate)
}
