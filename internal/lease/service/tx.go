package service

import (
	"context"
	"time"

	leasemetrics "leasekeeper/internal/lease/metrics"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	platformsync "leasekeeper/pkg/platform/sync"
)

// StoreTx provides the transactional boundary for lease writes. The overlap
// check and the write it guards must run inside one call to RunInTx.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

const defaultTxTimeout = 5 * time.Second

// ShardedTx serializes in-memory writers per unit.
type ShardedTx struct {
	mu      *platformsync.ShardedMutex
	store   Store
	timeout time.Duration
	metrics *leasemetrics.Metrics
}

func NewShardedTx(store Store, metrics *leasemetrics.Metrics) *ShardedTx {
	return &ShardedTx{mu: platformsync.NewShardedMutex(), store: store, metrics: metrics}
}

func (t *ShardedTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	key := unitKey(ctx)
	lockStart := time.Now()
	t.mu.Lock(key)
	if t.metrics != nil {
		t.metrics.TxLockWait.Observe(time.Since(lockStart).Seconds())
	}
	defer t.mu.Unlock(key)

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx, t.store)
}

type txUnitKey struct{}

// withUnit names the unit a transaction writes to so the in-memory boundary
// can pick its shard.
func withUnit(ctx context.Context, unitID id.UnitID) context.Context {
	return context.WithValue(ctx, txUnitKey{}, unitID.String())
}

func unitKey(ctx context.Context) string {
	if key, ok := ctx.Value(txUnitKey{}).(string); ok {
		return key
	}
	return ""
}
