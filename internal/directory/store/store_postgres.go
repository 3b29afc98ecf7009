package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"leasekeeper/internal/directory/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

// PostgresStore persists the directory in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateProperty(ctx context.Context, p *models.Property) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, account_id, address, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.UUID(p.ID), uuid.UUID(p.AccountID), p.Address, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProperty(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID) (*models.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, address, created_at
		FROM properties
		WHERE id = $1 AND account_id = $2`, uuid.UUID(propertyID), uuid.UUID(accountID))
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, accountID id.AccountID) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, address, created_at
		FROM properties
		WHERE account_id = $1
		ORDER BY address`, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateUnit(ctx context.Context, u *models.Unit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO units (id, account_id, property_id, apartment_number, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(u.ID), uuid.UUID(u.AccountID), uuid.UUID(u.PropertyID), u.ApartmentNumber, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("apartment already exists in property: %w", sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUnit(ctx context.Context, accountID id.AccountID, unitID id.UnitID) (*models.Unit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, property_id, apartment_number, created_at
		FROM units
		WHERE id = $1 AND account_id = $2`, uuid.UUID(unitID), uuid.UUID(accountID))
	u, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find unit: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListUnits(ctx context.Context, accountID id.AccountID, propertyID *id.PropertyID) ([]*models.Unit, error) {
	query := `
		SELECT id, account_id, property_id, apartment_number, created_at
		FROM units
		WHERE account_id = $1`
	args := []any{uuid.UUID(accountID)}
	if propertyID != nil {
		query += ` AND property_id = $2`
		args = append(args, uuid.UUID(*propertyID))
	}
	query += ` ORDER BY apartment_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Unit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, account_id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(t.ID), uuid.UUID(t.AccountID), t.Name, t.Email, t.Phone, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindTenant(ctx context.Context, accountID id.AccountID, tenantID id.TenantID) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, email, phone, created_at
		FROM tenants
		WHERE id = $1 AND account_id = $2`, uuid.UUID(tenantID), uuid.UUID(accountID))
	t, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListTenants(ctx context.Context, accountID id.AccountID) ([]*models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, name, email, phone, created_at
		FROM tenants
		WHERE account_id = $1
		ORDER BY name`, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()
	out := make([]*models.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SearchTenantIDs(ctx context.Context, accountID id.AccountID, term string) ([]id.TenantID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM tenants
		WHERE account_id = $1 AND name ILIKE '%' || $2 || '%'`, uuid.UUID(accountID), term)
	if err != nil {
		return nil, fmt.Errorf("search tenants: %w", err)
	}
	defer rows.Close()
	out := make([]id.TenantID, 0)
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		out = append(out, id.TenantID(raw))
	}
	return out, rows.Err()
}

func (s *PostgresStore) SearchUnitIDsByAddress(ctx context.Context, accountID id.AccountID, term string) ([]id.UnitID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE u.account_id = $1 AND p.address ILIKE '%' || $2 || '%'`, uuid.UUID(accountID), term)
	if err != nil {
		return nil, fmt.Errorf("search units by address: %w", err)
	}
	defer rows.Close()
	out := make([]id.UnitID, 0)
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan unit id: %w", err)
		}
		out = append(out, id.UnitID(raw))
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	var pid, aid uuid.UUID
	if err := row.Scan(&pid, &aid, &p.Address, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PropertyID(pid)
	p.AccountID = id.AccountID(aid)
	return &p, nil
}

func scanUnit(row rowScanner) (*models.Unit, error) {
	var u models.Unit
	var uid, aid, pid uuid.UUID
	if err := row.Scan(&uid, &aid, &pid, &u.ApartmentNumber, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UnitID(uid)
	u.AccountID = id.AccountID(aid)
	u.PropertyID = id.PropertyID(pid)
	return &u, nil
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var t models.Tenant
	var tid, aid uuid.UUID
	if err := row.Scan(&tid, &aid, &t.Name, &t.Email, &t.Phone, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ID = id.TenantID(tid)
	t.AccountID = id.AccountID(aid)
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
