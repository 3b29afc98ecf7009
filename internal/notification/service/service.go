package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,SettingsStore,LeaseSource,Sender

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	leasemodels "leasekeeper/internal/lease/models"
	notifmetrics "leasekeeper/internal/notification/metrics"
	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

// Store persists notifications. CreateIfAbsent must enforce uniqueness of
// (lease, threshold) at the storage layer.
type Store interface {
	CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error)
	FindByID(ctx context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error)
	ListByStatus(ctx context.Context, accountID id.AccountID, status models.Status) ([]*models.Notification, error)
	Update(ctx context.Context, n *models.Notification) error
	// ResetFailed returns sentinel.ErrInvalidState, changing nothing, unless
	// every id is a FAILED notification of the account.
	ResetFailed(ctx context.Context, accountID id.AccountID, ids []id.NotificationID, now time.Time) error
	List(ctx context.Context, accountID id.AccountID, filter models.Filter) ([]*models.Notification, int, error)
	DeleteByLease(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error
}

type SettingsStore interface {
	GetOrCreate(ctx context.Context, accountID id.AccountID, defaults []int, now time.Time) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

// LeaseSource finds the FUTURE and ACTIVE leases ending on a given day.
type LeaseSource interface {
	ListExpiringOn(ctx context.Context, accountID id.AccountID, day time.Time) ([]*leasemodels.Lease, error)
}

// Sender delivers one notification. A returned error marks it FAILED.
type Sender interface {
	Send(ctx context.Context, n *models.Notification) error
}

type options struct {
	logger      *slog.Logger
	clock       clock.Clock
	metrics     *notifmetrics.Metrics
	tracer      trace.Tracer
	sendTimeout time.Duration
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithMetrics(m *notifmetrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithSendTimeout bounds each send call. Zero leaves the call unbounded.
func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sendTimeout = d
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		clock:  clock.NewSystem(nil),
		tracer: otel.Tracer("leasekeeper/notification"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Service answers notification queries and manages per-account thresholds.
type Service struct {
	store    Store
	settings SettingsStore
	options
}

func New(store Store, settings SettingsStore, opts ...Option) *Service {
	return &Service{store: store, settings: settings, options: buildOptions(opts)}
}

func (s *Service) Get(ctx context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error) {
	n, err := s.store.FindByID(ctx, accountID, notificationID)
	if err != nil {
		return nil, translateFind(err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, accountID id.AccountID, filter models.Filter) (*models.Page, error) {
	filter.Normalize()
	items, total, err := s.store.List(ctx, accountID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return models.NewPage(items, total, filter), nil
}

// Upcoming returns every PENDING notification of the account.
func (s *Service) Upcoming(ctx context.Context, accountID id.AccountID) ([]*models.Notification, error) {
	items, err := s.store.ListByStatus(ctx, accountID, models.StatusPending)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending notifications")
	}
	return items, nil
}

// Settings returns the account's thresholds, creating the defaults on first read.
func (s *Service) Settings(ctx context.Context, accountID id.AccountID) (*models.Settings, error) {
	settings, err := s.settings.GetOrCreate(ctx, accountID, models.DefaultThresholds, clock.Now(ctx, s.clock))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notification settings")
	}
	return settings, nil
}

func (s *Service) Thresholds(ctx context.Context, accountID id.AccountID) ([]int, error) {
	settings, err := s.Settings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return settings.Days, nil
}

func (s *Service) UpdateSettings(ctx context.Context, accountID id.AccountID, days []int) (*models.Settings, error) {
	normalized, err := models.NormalizeThresholds(days)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	settings.Days = normalized
	settings.UpdatedAt = clock.Now(ctx, s.clock)
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save notification settings")
	}
	s.logger.InfoContext(ctx, "notification_settings_updated",
		"account_id", accountID.String(),
		"days_before_expiration", normalized,
	)
	return settings, nil
}

// DeleteByLease drops the notifications of a deleted lease.
func (s *Service) DeleteByLease(ctx context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	if err := s.store.DeleteByLease(ctx, accountID, leaseID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete lease notifications")
	}
	return nil
}

func translateFind(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "Notification not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notification")
}
