package app

import (
	"context"
	"database/sql"
	"time"

	leaseservice "leasekeeper/internal/lease/service"
	leasestore "leasekeeper/internal/lease/store"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/txcontext"
)

const defaultLeaseTxTimeout = 5 * time.Second

// leasePostgresTx runs lease writes in one database transaction. The unit
// row lock taken inside it is what serializes overlapping creates.
type leasePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newLeasePostgresTx(db *sql.DB) *leasePostgresTx {
	return &leasePostgresTx{db: db}
}

func (t *leasePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store leaseservice.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if tx, ok := txcontext.From(ctx); ok {
		return fn(ctx, leasestore.NewPostgresTx(tx))
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLeaseTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if err := fn(txcontext.WithTx(ctx, tx), leasestore.NewPostgresTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
