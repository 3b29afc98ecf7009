package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const notificationColumns = `id, account_id, lease_id, type, days_before_expiration, status,
		sent_at, error, created_at, updated_at`

// CreateIfAbsent leans on the notifications_lease_threshold_key constraint so
// concurrent generators cannot insert the same (lease, threshold) twice.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	var inserted uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT notifications_lease_threshold_key DO NOTHING
		RETURNING id`,
		uuid.UUID(n.ID), uuid.UUID(n.AccountID), uuid.UUID(n.LeaseID), string(n.Type),
		n.DaysBeforeExpiration, string(n.Status), nullTime(n.SentAt), nullString(n.Error),
		n.CreatedAt, n.UpdatedAt,
	).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1 AND account_id = $2`, uuid.UUID(notificationID), uuid.UUID(accountID))
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, accountID id.AccountID, status models.Status) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE account_id = $1 AND status = $2
		ORDER BY created_at, id`, uuid.UUID(accountID), string(status))
	if err != nil {
		return nil, fmt.Errorf("list notifications by status: %w", err)
	}
	return collectNotifications(rows)
}

func (s *PostgresStore) Update(ctx context.Context, n *models.Notification) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = $3, sent_at = $4, error = $5, updated_at = $6
		WHERE id = $1 AND account_id = $2`,
		uuid.UUID(n.ID), uuid.UUID(n.AccountID), string(n.Status), nullTime(n.SentAt), nullString(n.Error), n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return requireRow(res, "update notification")
}

// ResetFailed is a single statement: the update only applies when every listed
// id is a FAILED notification of the account.
func (s *PostgresStore) ResetFailed(ctx context.Context, accountID id.AccountID, ids []id.NotificationID, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		WITH target AS (
			SELECT id FROM notifications
			WHERE account_id = $1 AND id = ANY($2::uuid[]) AND status = 'FAILED'
			FOR UPDATE
		)
		UPDATE notifications
		SET status = 'PENDING', error = NULL, updated_at = $3
		WHERE id IN (SELECT id FROM target)
		  AND (SELECT count(*) FROM target) = $4`,
		uuid.UUID(accountID), notificationStrings(ids), now, len(ids),
	)
	if err != nil {
		return fmt.Errorf("reset failed notifications: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset failed notifications rows: %w", err)
	}
	if int(affected) != len(ids) {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, accountID id.AccountID, filter models.Filter) ([]*models.Notification, int, error) {
	where, args := buildListWhere(accountID, filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	args = append(args, filter.PageSize, filter.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`, notificationColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	items, err := collectNotifications(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *PostgresStore) DeleteByLease(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE account_id = $1 AND lease_id = $2`,
		uuid.UUID(accountID), uuid.UUID(leaseID))
	if err != nil {
		return fmt.Errorf("delete lease notifications: %w", err)
	}
	return nil
}

func buildListWhere(accountID id.AccountID, f models.Filter) (string, []any) {
	clauses := []string{"account_id = $1"}
	args := []any{uuid.UUID(accountID)}
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Type != nil {
		add("type = $%d", string(*f.Type))
	}
	if f.LeaseID != nil {
		add("lease_id = $%d", uuid.UUID(*f.LeaseID))
	}
	if f.CreatedFrom != nil {
		add("created_at >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at <= $%d", *f.CreatedTo)
	}
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n                         models.Notification
		notificationID, accountID uuid.UUID
		leaseID                   uuid.UUID
		typ, status               string
		sentAt                    sql.NullTime
		errText                   sql.NullString
	)
	if err := row.Scan(&notificationID, &accountID, &leaseID, &typ, &n.DaysBeforeExpiration, &status,
		&sentAt, &errText, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.ID = id.NotificationID(notificationID)
	n.AccountID = id.AccountID(accountID)
	n.LeaseID = id.LeaseID(leaseID)
	n.Type = models.Type(typ)
	n.Status = models.Status(status)
	if sentAt.Valid {
		t := sentAt.Time
		n.SentAt = &t
	}
	if errText.Valid {
		e := errText.String
		n.Error = &e
	}
	return &n, nil
}

func collectNotifications(rows *sql.Rows) ([]*models.Notification, error) {
	defer rows.Close()
	out := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
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

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func notificationStrings(ids []id.NotificationID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

// SettingsPostgres persists notification thresholds, one row per account.
type SettingsPostgres struct {
	db      *sql.DB
	typeMap *pgtype.Map
}

func NewSettingsPostgres(db *sql.DB) *SettingsPostgres {
	return &SettingsPostgres{db: db, typeMap: pgtype.NewMap()}
}

// GetOrCreate inserts defaults when the account has no row yet, then reads
// whichever row won.
func (s *SettingsPostgres) GetOrCreate(ctx context.Context, accountID id.AccountID, defaults []int, now time.Time) (*models.Settings, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_settings (account_id, days_before_expiration, created_at, updated_at)
		VALUES ($1, $2::integer[], $3, $3)
		ON CONFLICT (account_id) DO NOTHING`,
		uuid.UUID(accountID), intArrayLiteral(defaults), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert default notification settings: %w", err)
	}

	var (
		days     []int32
		settings = models.Settings{AccountID: accountID}
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT days_before_expiration, created_at, updated_at
		FROM notification_settings
		WHERE account_id = $1`, uuid.UUID(accountID),
	).Scan(s.typeMap.SQLScanner(&days), &settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("load notification settings: %w", err)
	}
	settings.Days = make([]int, len(days))
	for i, d := range days {
		settings.Days[i] = int(d)
	}
	return &settings, nil
}

func (s *SettingsPostgres) Save(ctx context.Context, settings *models.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_settings (account_id, days_before_expiration, created_at, updated_at)
		VALUES ($1, $2::integer[], $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET days_before_expiration = EXCLUDED.days_before_expiration, updated_at = EXCLUDED.updated_at`,
		uuid.UUID(settings.AccountID), intArrayLiteral(settings.Days), settings.CreatedAt, settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}

// intArrayLiteral renders days in Postgres array text form, e.g. {7,30}.
func intArrayLiteral(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
