package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leasekeeper/internal/notification/models"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

// Generator creates expiration notices. A lease gets one notice per threshold,
// on the day its end date is exactly that many days away.
type Generator struct {
	store  Store
	leases LeaseSource
	options
}

func NewGenerator(store Store, leases LeaseSource, opts ...Option) *Generator {
	return &Generator{store: store, leases: leases, options: buildOptions(opts)}
}

// Generate returns the number of notifications it created. Thresholds that
// already have a notice are skipped, so calling it again the same day creates
// nothing. Failures on one threshold do not stop the others.
func (g *Generator) Generate(ctx context.Context, accountID id.AccountID, thresholds []int) (int, error) {
	if len(thresholds) == 0 {
		return 0, nil
	}
	thresholds, err := models.NormalizeThresholds(thresholds)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	today := clock.Today(ctx, g.clock)
	now := clock.Now(ctx, g.clock)

	created := 0
	var errs []error
	for _, days := range thresholds {
		target := clock.AddDays(today, days)
		leases, err := g.leases.ListExpiringOn(ctx, accountID, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("threshold %d: %w", days, err))
			continue
		}
		for _, l := range leases {
			n := models.NewNotification(id.NotificationID(uuid.New()), accountID, l.ID,
				models.TypeFor(today, l.EndDate), days, now)
			inserted, err := g.store.CreateIfAbsent(ctx, n)
			if err != nil {
				errs = append(errs, fmt.Errorf("lease %s threshold %d: %w", l.ID, days, err))
				continue
			}
			if inserted {
				created++
			}
		}
	}

	if g.metrics != nil {
		g.metrics.NotificationsCreated.Add(float64(created))
	}
	g.logger.InfoContext(ctx, "notifications_generated",
		"account_id", accountID.String(),
		"thresholds", thresholds,
		"created", created,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if len(errs) > 0 {
		return created, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "notification generation incomplete")
	}
	return created, nil
}
