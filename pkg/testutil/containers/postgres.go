//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"leasekeeper/internal/platform/database"
	"leasekeeper/migrations"
	id "leasekeeper/pkg/domain"
)

// PostgresContainer wraps a testcontainers Postgres instance with the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("leasekeeper_test"),
		postgres.WithUsername("leasekeeper"),
		postgres.WithPassword("leasekeeper_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	if _, err := database.Migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Ryuk removes the container when the test process exits; the manager
	// shares it between suites so no t.Cleanup is registered here.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateAll clears every domain table.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE TABLE notifications, notification_settings, leases, units, properties, tenants, accounts CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// Fixture is a minimal account with one unit and one renter.
type Fixture struct {
	AccountID  id.AccountID
	PropertyID id.PropertyID
	UnitID     id.UnitID
	TenantID   id.TenantID
}

// CreateFixture inserts an active account with a property, a unit and a renter.
func (p *PostgresContainer) CreateFixture(ctx context.Context, t testing.TB) Fixture {
	t.Helper()
	f := Fixture{
		AccountID:  id.AccountID(uuid.New()),
		PropertyID: id.PropertyID(uuid.New()),
		UnitID:     id.UnitID(uuid.New()),
		TenantID:   id.TenantID(uuid.New()),
	}
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO accounts (id, name, status, created_at, updated_at) VALUES ($1, $2, 'ACTIVE', NOW(), NOW())`,
			[]any{uuid.UUID(f.AccountID), "Account " + uuid.NewString()}},
		{`INSERT INTO properties (id, account_id, address, created_at) VALUES ($1, $2, '1 Test St', NOW())`,
			[]any{uuid.UUID(f.PropertyID), uuid.UUID(f.AccountID)}},
		{`INSERT INTO units (id, account_id, property_id, apartment_number, created_at) VALUES ($1, $2, $3, '1', NOW())`,
			[]any{uuid.UUID(f.UnitID), uuid.UUID(f.AccountID), uuid.UUID(f.PropertyID)}},
		{`INSERT INTO tenants (id, account_id, name, created_at) VALUES ($1, $2, 'Test Renter', NOW())`,
			[]any{uuid.UUID(f.TenantID), uuid.UUID(f.AccountID)}},
	}
	for _, st := range stmts {
		if _, err := p.DB.ExecContext(ctx, st.query, st.args...); err != nil {
			t.Fatalf("CreateFixture: %v", err)
		}
	}
	return f
}
