package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"leasekeeper/internal/lease/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/clock"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// PostgresStore persists leases in PostgreSQL. Dates are sent as YYYY-MM-DD
// strings so the session time zone cannot shift them.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a store bound to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const leaseColumns = `id, account_id, unit_id, tenant_id, start_date, end_date, monthly_rent,
		payment_target, notes, status, created_at, updated_at`

// LockUnit takes a row lock on the unit. Outside a transaction the lock is
// released immediately, so callers must use NewPostgresTx.
func (s *PostgresStore) LockUnit(ctx context.Context, accountID id.AccountID, unitID id.UnitID) error {
	var locked uuid.UUID
	err := s.execer().QueryRowContext(ctx, `
		SELECT id FROM units
		WHERE id = $1 AND account_id = $2
		FOR UPDATE`, uuid.UUID(unitID), uuid.UUID(accountID)).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock unit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBlocking(ctx context.Context, accountID id.AccountID, unitID id.UnitID) ([]*models.Lease, error) {
	rows, err := s.execer().QueryContext(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE account_id = $1 AND unit_id = $2 AND status IN ('FUTURE', 'ACTIVE')`,
		uuid.UUID(accountID), uuid.UUID(unitID))
	if err != nil {
		return nil, fmt.Errorf("list blocking leases: %w", err)
	}
	return collectLeases(rows)
}

func (s *PostgresStore) Create(ctx context.Context, l *models.Lease) error {
	_, err := s.execer().ExecContext(ctx, `
		INSERT INTO leases (`+leaseColumns+`)
		VALUES ($1, $2, $3, $4, $5::date, $6::date, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(l.ID), uuid.UUID(l.AccountID), uuid.UUID(l.UnitID), uuid.UUID(l.TenantID),
		clock.FormatDate(l.StartDate), clock.FormatDate(l.EndDate), l.MonthlyRent,
		l.PaymentTarget, nullString(l.Notes), string(l.Status), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "create lease")
	}
	return nil
}

// FindByID loads one lease. Inside a transaction the row stays locked until
// commit, so a read-modify-write cannot interleave with another writer.
func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error) {
	query := `
		SELECT ` + leaseColumns + `
		FROM leases
		WHERE id = $1 AND account_id = $2`
	if s.tx != nil {
		query += `
		FOR UPDATE`
	}
	row := s.execer().QueryRowContext(ctx, query, uuid.UUID(leaseID), uuid.UUID(accountID))
	l, err := scanLease(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find lease: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Update(ctx context.Context, l *models.Lease) error {
	res, err := s.execer().ExecContext(ctx, `
		UPDATE leases
		SET unit_id = $3, tenant_id = $4, start_date = $5::date, end_date = $6::date,
			monthly_rent = $7, payment_target = $8, notes = $9, status = $10, updated_at = $11
		WHERE id = $1 AND account_id = $2
			AND (status <> 'TERMINATED' OR $10 = 'TERMINATED')`,
		uuid.UUID(l.ID), uuid.UUID(l.AccountID), uuid.UUID(l.UnitID), uuid.UUID(l.TenantID),
		clock.FormatDate(l.StartDate), clock.FormatDate(l.EndDate), l.MonthlyRent,
		l.PaymentTarget, nullString(l.Notes), string(l.Status), l.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "update lease")
	}
	if err := requireRow(res, "update lease"); !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	return s.missOrTerminated(ctx, l.AccountID, l.ID)
}

// missOrTerminated explains an UPDATE that matched no row.
func (s *PostgresStore) missOrTerminated(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	var status string
	err := s.execer().QueryRowContext(ctx, `
		SELECT status FROM leases WHERE id = $1 AND account_id = $2`,
		uuid.UUID(leaseID), uuid.UUID(accountID)).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case err != nil:
		return fmt.Errorf("update lease: %w", err)
	case status == string(models.StatusTerminated):
		return sentinel.ErrInvalidState
	default:
		return sentinel.ErrNotFound
	}
}

// Delete removes the lease; notifications go with it through ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	res, err := s.execer().ExecContext(ctx, `DELETE FROM leases WHERE id = $1 AND account_id = $2`,
		uuid.UUID(leaseID), uuid.UUID(accountID))
	if err != nil {
		return fmt.Errorf("delete lease: %w", err)
	}
	return requireRow(res, "delete lease")
}

func (s *PostgresStore) List(ctx context.Context, accountID id.AccountID, filter models.Filter) ([]*models.Lease, int, error) {
	where, args := buildListWhere(accountID, filter)

	var total int
	if err := s.execer().QueryRowContext(ctx, `SELECT count(*) FROM leases WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leases: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM leases
		WHERE %s
		ORDER BY start_date DESC, id
		LIMIT $%d OFFSET $%d`, leaseColumns, where, len(args)-1, len(args))
	rows, err := s.execer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leases: %w", err)
	}
	items, err := collectLeases(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// buildListWhere renders filter as a WHERE clause with positional arguments.
func buildListWhere(accountID id.AccountID, f models.Filter) (string, []any) {
	clauses := []string{"account_id = $1"}
	args := []any{uuid.UUID(accountID)}
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.TenantID != nil {
		add("tenant_id = $%d", uuid.UUID(*f.TenantID))
	}
	if f.UnitID != nil {
		add("unit_id = $%d", uuid.UUID(*f.UnitID))
	}
	if f.UnitIDs != nil {
		add("unit_id = ANY($%d::uuid[])", unitStrings(f.UnitIDs))
	}
	if f.Search {
		args = append(args, tenantStrings(f.MatchTenantIDs), unitStrings(f.MatchUnitIDs))
		clauses = append(clauses, fmt.Sprintf("(tenant_id = ANY($%d::uuid[]) OR unit_id = ANY($%d::uuid[]))", len(args)-1, len(args)))
	}
	if f.Status != nil {
		if f.Today.IsZero() || *f.Status == models.StatusTerminated {
			add("status = $%d", string(*f.Status))
		} else {
			add(projectedStatusClause(*f.Status), clock.FormatDate(f.Today))
		}
	}
	if f.StartFrom != nil {
		add("start_date >= $%d::date", clock.FormatDate(*f.StartFrom))
	}
	if f.StartTo != nil {
		add("start_date <= $%d::date", clock.FormatDate(*f.StartTo))
	}
	if f.EndFrom != nil {
		add("end_date >= $%d::date", clock.FormatDate(*f.EndFrom))
	}
	if f.EndTo != nil {
		add("end_date <= $%d::date", clock.FormatDate(*f.EndTo))
	}
	if f.RentMin != nil {
		add("monthly_rent >= $%d", *f.RentMin)
	}
	if f.RentMax != nil {
		add("monthly_rent <= $%d", *f.RentMax)
	}
	return strings.Join(clauses, " AND "), args
}

// projectedStatusClause matches non-terminated leases whose calendar status
// on the date bound to the placeholder is status.
func projectedStatusClause(status models.Status) string {
	switch status {
	case models.StatusFuture:
		return "(status <> 'TERMINATED' AND start_date > $%d::date)"
	case models.StatusExpired:
		return "(status <> 'TERMINATED' AND end_date < $%d::date)"
	default:
		return "(status <> 'TERMINATED' AND $%d::date BETWEEN start_date AND end_date)"
	}
}

func (s *PostgresStore) ListByEndDate(ctx context.Context, accountID id.AccountID, from *time.Time, to time.Time, statuses []models.Status) ([]*models.Lease, error) {
	clauses := []string{"account_id = $1", "end_date <= $2::date"}
	args := []any{uuid.UUID(accountID), clock.FormatDate(to)}
	if from != nil {
		args = append(args, clock.FormatDate(*from))
		clauses = append(clauses, fmt.Sprintf("end_date >= $%d::date", len(args)))
	}
	if len(statuses) > 0 {
		args = append(args, statusStrings(statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d::text[])", len(args)))
	}
	rows, err := s.execer().QueryContext(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY end_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list leases by end date: %w", err)
	}
	return collectLeases(rows)
}

func (s *PostgresStore) ListByStatuses(ctx context.Context, statuses []models.Status) ([]*models.Lease, error) {
	rows, err := s.execer().QueryContext(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE status = ANY($1::text[])`, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("list leases by status: %w", err)
	}
	return collectLeases(rows)
}

// UpdateStatus is a compare-and-set on the status column.
func (s *PostgresStore) UpdateStatus(ctx context.Context, leaseID id.LeaseID, from, to models.Status, updatedAt time.Time) error {
	res, err := s.execer().ExecContext(ctx, `
		UPDATE leases SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		uuid.UUID(leaseID), string(from), string(to), updatedAt)
	if err != nil {
		return mapWriteErr(err, "update lease status")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lease status rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

type leaseRow interface {
	Scan(dest ...any) error
}

func scanLease(row leaseRow) (*models.Lease, error) {
	var (
		l                                models.Lease
		leaseID, accountID, unit, renter uuid.UUID
		rent                             decimal.Decimal
		notes                            sql.NullString
		status                           string
	)
	if err := row.Scan(&leaseID, &accountID, &unit, &renter, &l.StartDate, &l.EndDate, &rent,
		&l.PaymentTarget, &notes, &status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.ID = id.LeaseID(leaseID)
	l.AccountID = id.AccountID(accountID)
	l.UnitID = id.UnitID(unit)
	l.TenantID = id.TenantID(renter)
	l.StartDate = clock.Day(l.StartDate)
	l.EndDate = clock.Day(l.EndDate)
	l.MonthlyRent = rent
	l.Status = models.Status(status)
	if notes.Valid {
		l.Notes = &notes.String
	}
	return &l, nil
}

func collectLeases(rows *sql.Rows) ([]*models.Lease, error) {
	defer rows.Close()
	out := make([]*models.Lease, 0)
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leases: %w", err)
	}
	return out, nil
}

// mapWriteErr maps the overlap exclusion constraint to sentinel.ErrConflict.
func mapWriteErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgExclusionViolation || pgErr.Code == pgUniqueViolation) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func unitStrings(ids []id.UnitID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

func tenantStrings(ids []id.TenantID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, v := range statuses {
		out[i] = string(v)
	}
	return out
}
