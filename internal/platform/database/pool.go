package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"leasekeeper/internal/platform/config"
)

// ApplicationName tags leasekeeper sessions in pg_stat_activity.
const ApplicationName = "leasekeeper"

const pingTimeout = 5 * time.Second

// Pool is the shared Postgres handle. A nil *Pool is valid and reports itself
// as unconfigured, which is how the in-memory mode runs.
type Pool struct {
	db *sql.DB
}

// New opens and pings a Postgres pool. It returns nil, nil when no URL is
// configured.
func New(cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	connCfg, err := connConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s/%s: %w", connCfg.Host, connCfg.Database, err)
	}

	return &Pool{db: db}, nil
}

// connConfig parses url and pins the session settings the stores rely on:
// timestamps are exchanged in UTC and lease dates are plain DATE columns.
func connConfig(url string) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(url)
	if err != nil {
		// the parse error can echo the password back
		return nil, errors.New("parse DATABASE_URL: malformed connection string")
	}
	if connCfg.RuntimeParams == nil {
		connCfg.RuntimeParams = make(map[string]string)
	}
	if _, ok := connCfg.RuntimeParams["application_name"]; !ok {
		connCfg.RuntimeParams["application_name"] = ApplicationName
	}
	connCfg.RuntimeParams["timezone"] = "UTC"
	return connCfg, nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health pings the database. It is registered as the readiness check.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return errors.New("database not configured")
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
