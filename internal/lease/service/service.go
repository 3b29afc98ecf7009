package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Directory,NotificationPurger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dirmodels "leasekeeper/internal/directory/models"
	leasemetrics "leasekeeper/internal/lease/metrics"
	"leasekeeper/internal/lease/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

// Store is the persistence contract for leases. Reads and writes are scoped
// by account except the sweep methods, which span every account.
type Store interface {
	// LockUnit serializes writers on a unit for the rest of the transaction.
	LockUnit(ctx context.Context, accountID id.AccountID, unitID id.UnitID) error
	ListBlocking(ctx context.Context, accountID id.AccountID, unitID id.UnitID) ([]*models.Lease, error)
	Create(ctx context.Context, lease *models.Lease) error
	FindByID(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error)
	// Update replaces the stored lease. It returns sentinel.ErrInvalidState
	// when the stored lease is TERMINATED and lease is not.
	Update(ctx context.Context, lease *models.Lease) error
	Delete(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error
	List(ctx context.Context, accountID id.AccountID, filter models.Filter) ([]*models.Lease, int, error)
	ListByEndDate(ctx context.Context, accountID id.AccountID, from *time.Time, to time.Time, statuses []models.Status) ([]*models.Lease, error)
	ListByStatuses(ctx context.Context, statuses []models.Status) ([]*models.Lease, error)
	// UpdateStatus moves a lease from one status to another and returns
	// sentinel.ErrInvalidState when the stored status is no longer from.
	UpdateStatus(ctx context.Context, leaseID id.LeaseID, from, to models.Status, updatedAt time.Time) error
}

// Directory resolves the units and renters a lease references.
type Directory interface {
	GetUnit(ctx context.Context, accountID id.AccountID, unitID id.UnitID) (*dirmodels.Unit, error)
	GetTenant(ctx context.Context, accountID id.AccountID, tenantID id.TenantID) (*dirmodels.Tenant, error)
	GetProperty(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID) (*dirmodels.Property, error)
	SearchIDs(ctx context.Context, accountID id.AccountID, term string) ([]id.TenantID, []id.UnitID, error)
	UnitIDsForProperty(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID) ([]id.UnitID, error)
}

// NotificationPurger removes notifications belonging to a deleted lease.
type NotificationPurger interface {
	DeleteByLease(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error
}

// Service is the lease lifecycle manager.
type Service struct {
	store     Store
	tx        StoreTx
	directory Directory
	purger    NotificationPurger
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *leasemetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithMetrics(m *leasemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx replaces the default in-memory transaction boundary.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithNotificationPurger(p NotificationPurger) Option {
	return func(s *Service) {
		s.purger = p
	}
}

func New(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		directory: directory,
		clock:     clock.NewSystem(nil),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx(store, s.metrics)
	}
	return s
}

// CreateCommand holds the terms of a new lease.
type CreateCommand struct {
	AccountID     id.AccountID
	UnitID        id.UnitID
	TenantID      id.TenantID
	StartDate     time.Time
	EndDate       time.Time
	MonthlyRent   decimal.Decimal
	PaymentTarget string
	Notes         *string
}

// Create validates the terms, checks that unit and renter belong to the
// account, and writes the lease unless the unit is already let for any day
// of the period.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*models.Lease, error) {
	now := clock.Now(ctx, s.clock)
	lease, err := models.NewLease(id.LeaseID(uuid.New()), cmd.AccountID, cmd.UnitID, cmd.TenantID,
		cmd.StartDate, cmd.EndDate, cmd.MonthlyRent, cmd.PaymentTarget, cmd.Notes, now)
	if err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, cmd.AccountID, &cmd.UnitID, &cmd.TenantID); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(withUnit(ctx, cmd.UnitID), func(ctx context.Context, store Store) error {
		if err := s.ensureNoConflict(ctx, store, lease, nil); err != nil {
			return err
		}
		return store.Create(ctx, lease)
	})
	if err != nil {
		return nil, s.translateWrite(err, "failed to create lease")
	}

	if s.metrics != nil {
		s.metrics.LeasesCreated.Inc()
	}
	s.logger.InfoContext(ctx, "lease_created",
		"account_id", cmd.AccountID.String(),
		"lease_id", lease.ID.String(),
		"unit_id", cmd.UnitID.String(),
		"status", string(lease.Status),
	)
	return lease, nil
}

// Update applies a partial change. Terminated leases are frozen. The overlap
// check runs again, excluding the lease itself, when unit or dates move.
func (s *Service) Update(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID, patch models.Patch) (*models.Lease, error) {
	current, err := s.Get(ctx, accountID, leaseID)
	if err != nil {
		return nil, err
	}
	if current.IsFrozen() {
		return nil, dErrors.New(dErrors.CodeValidation, models.MsgTerminatedFrozen)
	}
	if err := s.checkReferences(ctx, accountID, patch.UnitID, patch.TenantID); err != nil {
		return nil, err
	}

	targetUnit := current.UnitID
	if patch.UnitID != nil {
		targetUnit = *patch.UnitID
	}

	var updated *models.Lease
	err = s.tx.RunInTx(withUnit(ctx, targetUnit), func(ctx context.Context, store Store) error {
		if err := store.LockUnit(ctx, accountID, targetUnit); err != nil {
			return err
		}
		// Re-read inside the boundary; the Postgres store locks the row here and
		// both stores refuse to overwrite a TERMINATED lease on write.
		lease, err := store.FindByID(ctx, accountID, leaseID)
		if err != nil {
			return err
		}
		moves := patch.MovesPeriod(lease)
		if err := lease.Apply(patch, clock.Now(ctx, s.clock)); err != nil {
			return err
		}
		if moves {
			if err := s.checkConflict(ctx, store, lease, &lease.ID); err != nil {
				return err
			}
		}
		if err := store.Update(ctx, lease); err != nil {
			return err
		}
		updated = lease
		return nil
	})
	if err != nil {
		return nil, s.translateWrite(err, "failed to update lease")
	}

	s.logger.InfoContext(ctx, "lease_updated",
		"account_id", accountID.String(),
		"lease_id", leaseID.String(),
		"status", string(updated.Status),
	)
	return updated, nil
}

// Terminate sets the lease to TERMINATED regardless of its dates. Terminating
// an already terminated lease returns it unchanged without writing.
func (s *Service) Terminate(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error) {
	current, err := s.Get(ctx, accountID, leaseID)
	if err != nil {
		return nil, err
	}
	if current.IsFrozen() {
		return current, nil
	}

	var result *models.Lease
	changed := false
	err = s.tx.RunInTx(withUnit(ctx, current.UnitID), func(ctx context.Context, store Store) error {
		lease, err := store.FindByID(ctx, accountID, leaseID)
		if err != nil {
			return err
		}
		result = lease
		if changed = lease.Terminate(clock.Now(ctx, s.clock)); !changed {
			return nil
		}
		return store.Update(ctx, lease)
	})
	if err != nil {
		return nil, s.translateWrite(err, "failed to terminate lease")
	}
	if !changed {
		return result, nil
	}

	if s.metrics != nil {
		s.metrics.LeasesTerminated.Inc()
	}
	s.logger.InfoContext(ctx, "lease_terminated", "account_id", accountID.String(), "lease_id", leaseID.String())
	return result, nil
}

// Get returns the lease with its status refreshed for today. The refresh is a
// projection only; the sweep persists it.
func (s *Service) Get(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error) {
	lease, err := s.store.FindByID(ctx, accountID, leaseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Lease not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lease")
	}
	lease.Refresh(clock.Today(ctx, s.clock))
	return lease, nil
}

// ListQuery is a lease listing request. Search matches renter names and
// property addresses; PropertyID narrows to the units of one property.
type ListQuery struct {
	Filter     models.Filter
	Search     string
	PropertyID *id.PropertyID
}

func (s *Service) List(ctx context.Context, accountID id.AccountID, q ListQuery) (*models.Page, error) {
	today := clock.Today(ctx, s.clock)
	filter := q.Filter
	filter.Normalize()
	filter.Today = today

	if q.Search != "" {
		tenantIDs, unitIDs, err := s.directory.SearchIDs(ctx, accountID, q.Search)
		if err != nil {
			return nil, err
		}
		filter.Search = true
		filter.MatchTenantIDs = tenantIDs
		filter.MatchUnitIDs = unitIDs
	}
	if q.PropertyID != nil {
		unitIDs, err := s.directory.UnitIDsForProperty(ctx, accountID, *q.PropertyID)
		if err != nil {
			return nil, err
		}
		filter.UnitIDs = unitIDs
	}

	items, total, err := s.store.List(ctx, accountID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list leases")
	}
	for _, l := range items {
		l.Refresh(today)
	}
	return models.NewPage(items, total, filter), nil
}

// Delete removes the lease and its notifications.
func (s *Service) Delete(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	if err := s.store.Delete(ctx, accountID, leaseID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Lease not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete lease")
	}
	if s.purger != nil {
		if err := s.purger.DeleteByLease(ctx, accountID, leaseID); err != nil {
			s.logger.WarnContext(ctx, "failed to purge lease notifications",
				"account_id", accountID.String(), "lease_id", leaseID.String(), "error", err)
		}
	}
	s.logger.InfoContext(ctx, "lease_deleted", "account_id", accountID.String(), "lease_id", leaseID.String())
	return nil
}

const DefaultTimelineMonths = 12

// ExpirationTimeline lists leases ending within monthsAhead months, soonest first.
func (s *Service) ExpirationTimeline(ctx context.Context, accountID id.AccountID, monthsAhead int) ([]*models.TimelineEntry, error) {
	if monthsAhead <= 0 {
		monthsAhead = DefaultTimelineMonths
	}
	today := clock.Today(ctx, s.clock)
	horizon := today.AddDate(0, monthsAhead, 0)

	leases, err := s.store.ListByEndDate(ctx, accountID, nil, horizon, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load expiration timeline")
	}

	labels := newLabelCache(s.directory, accountID)
	out := make([]*models.TimelineEntry, 0, len(leases))
	for _, l := range leases {
		l.Refresh(today)
		entry := &models.TimelineEntry{
			LeaseID:       l.ID,
			EndDate:       l.EndDate,
			DaysRemaining: int(l.EndDate.Sub(today).Hours() / 24),
			Status:        l.Status,
		}
		labels.fill(ctx, l, entry)
		out = append(out, entry)
	}
	return out, nil
}

// ListExpiringOn returns the account's FUTURE and ACTIVE leases whose end date
// is exactly day.
func (s *Service) ListExpiringOn(ctx context.Context, accountID id.AccountID, day time.Time) ([]*models.Lease, error) {
	day = clock.Day(day)
	leases, err := s.store.ListByEndDate(ctx, accountID, &day, day, models.BlockingStatuses)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load expiring leases")
	}
	return leases, nil
}

// SweepResult summarises one status sweep.
type SweepResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

// SweepStatuses recomputes every FUTURE and ACTIVE lease against today and
// persists only the changes. A lease terminated while the sweep runs keeps
// its TERMINATED status.
func (s *Service) SweepStatuses(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	today := clock.Today(ctx, s.clock)
	now := clock.Now(ctx, s.clock)

	leases, err := s.store.ListByStatuses(ctx, models.BlockingStatuses)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load leases for sweep")
	}

	result := &SweepResult{Checked: len(leases)}
	var errs []error
	for _, l := range leases {
		from := l.Status
		if !l.Refresh(today) {
			continue
		}
		err := s.store.UpdateStatus(ctx, l.ID, from, l.Status, now)
		switch {
		case err == nil:
			result.Updated++
			if s.metrics != nil {
				s.metrics.SweepUpdated.WithLabelValues(string(l.Status)).Inc()
			}
		case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrNotFound):
			// changed or removed since it was read
		default:
			errs = append(errs, err)
		}
	}

	if s.metrics != nil {
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "lease_status_sweep_completed",
		"checked", result.Checked,
		"updated", result.Updated,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if len(errs) > 0 {
		return result, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "some lease statuses could not be saved")
	}
	return result, nil
}

func (s *Service) checkReferences(ctx context.Context, accountID id.AccountID, unitID *id.UnitID, tenantID *id.TenantID) error {
	if unitID != nil {
		if _, err := s.directory.GetUnit(ctx, accountID, *unitID); err != nil {
			return err
		}
	}
	if tenantID != nil {
		if _, err := s.directory.GetTenant(ctx, accountID, *tenantID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ensureNoConflict(ctx context.Context, store Store, lease *models.Lease, exclude *id.LeaseID) error {
	if err := store.LockUnit(ctx, lease.AccountID, lease.UnitID); err != nil {
		return err
	}
	return s.checkConflict(ctx, store, lease, exclude)
}

// checkConflict compares the candidate period with every FUTURE or ACTIVE
// lease on its unit. The candidate's own status plays no part: a back-dated
// lease still cannot claim days an active lease holds.
func (s *Service) checkConflict(ctx context.Context, store Store, lease *models.Lease, exclude *id.LeaseID) error {
	existing, err := store.ListBlocking(ctx, lease.AccountID, lease.UnitID)
	if err != nil {
		return err
	}
	if models.HasConflict(lease.AccountID, lease.UnitID, lease.Period(), exclude, existing) {
		return dErrors.New(dErrors.CodeConflict, models.MsgOverlap)
	}
	return nil
}

// translateWrite maps store sentinels raised inside a transaction. Domain
// errors pass through with their code.
func (s *Service) translateWrite(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		if domainErr.Code == dErrors.CodeConflict && s.metrics != nil {
			s.metrics.OverlapRejections.Inc()
		}
		return err
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.OverlapRejections.Inc()
		}
		return dErrors.New(dErrors.CodeConflict, models.MsgOverlap)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "Lease not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		// terminated by a concurrent request after it was read
		return dErrors.New(dErrors.CodeValidation, models.MsgTerminatedFrozen)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
