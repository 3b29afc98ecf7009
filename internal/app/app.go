// Package app is the composition root shared by the server and leasectl.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	accountmetrics "leasekeeper/internal/account/metrics"
	accountservice "leasekeeper/internal/account/service"
	accountstore "leasekeeper/internal/account/store"
	dirservice "leasekeeper/internal/directory/service"
	dirstore "leasekeeper/internal/directory/store"
	leasemetrics "leasekeeper/internal/lease/metrics"
	leaseservice "leasekeeper/internal/lease/service"
	leasestore "leasekeeper/internal/lease/store"
	notifmetrics "leasekeeper/internal/notification/metrics"
	notifservice "leasekeeper/internal/notification/service"
	notifstore "leasekeeper/internal/notification/store"
	"leasekeeper/internal/platform/config"
	"leasekeeper/internal/platform/database"
	"leasekeeper/internal/platform/health"
	platformmetrics "leasekeeper/internal/platform/metrics"
	redisplatform "leasekeeper/internal/platform/redis"
	"leasekeeper/internal/scheduler"
	"leasekeeper/migrations"
	"leasekeeper/pkg/platform/clock"
	request "leasekeeper/pkg/platform/middleware/request"
)

type registerCheck func(name string, check health.CheckFunc)

// App holds the wired services. Close releases the connections New opened.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Clock  clock.Clock
	Router http.Handler

	Accounts      *accountservice.Service
	Directory     *dirservice.Service
	Leases        *leaseservice.Service
	Notifications *notifservice.Service
	Generator     *notifservice.Generator
	Processor     *notifservice.Processor

	Runner          *scheduler.Runner
	NotificationJob *scheduler.NotificationJob
	SweepJob        *scheduler.SweepJob

	pool    *database.Pool
	closers []func() error
}

type options struct {
	clock    clock.Clock
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	sender   notifservice.Sender
}

type Option func(*options)

// WithClock pins the time source, mainly for end-to-end tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRegistry registers collectors on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
			o.gatherer = reg
		}
	}
}

// WithSender replaces the configured delivery channel.
func WithSender(s notifservice.Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}

// New wires every module. With an empty DATABASE_URL all stores are in
// memory; with an empty REDIS_URL the scheduler lock is process-local.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{
		clock:    clock.NewSystem(cfg.Scheduler.Location()),
		registry: prometheus.DefaultRegisterer,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, Clock: o.clock}
	healthHandler := health.New(cfg.Environment)
	checks := registerCheck(healthHandler.RegisterCheck)

	if err := a.wire(cfg, o, checks); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Router = newRouter(routerDeps{
		cfg:       cfg,
		logger:    logger,
		clock:     o.clock,
		gatherer:  o.gatherer,
		requests:  request.NewMetricsWith(o.registry),
		health:    healthHandler,
		accounts:  a.Accounts,
		directory: a.Directory,
		leases:    a.Leases,
		notifs:    a.Notifications,
		processor: a.Processor,
		trigger:   a.NotificationJob,
		runner:    a.Runner,
	})
	return a, nil
}

func (a *App) wire(cfg config.Config, o options, checks registerCheck) error {
	logger := a.Logger
	var (
		accounts  accountservice.Store
		directory dirservice.Store
		leases    leaseservice.Store
		notifs    notifservice.Store
		settings  notifservice.SettingsStore
		leaseTx   leaseservice.StoreTx
	)

	if cfg.Database.URL != "" {
		pool, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		a.closers = append(a.closers, pool.Close)
		checks("postgres", pool.Health)

		db := pool.DB()
		accounts = accountstore.NewPostgres(db)
		directory = dirstore.NewPostgres(db)
		leases = leasestore.NewPostgres(db)
		notifs = notifstore.NewPostgres(db)
		settings = notifstore.NewSettingsPostgres(db)
		leaseTx = newLeasePostgresTx(db)
		logger.Info("using postgres stores")
	} else {
		accounts = accountstore.NewInMemory()
		directory = dirstore.NewInMemory()
		leases = leasestore.NewInMemory()
		notifs = notifstore.NewInMemory()
		settings = notifstore.NewSettingsInMemory()
		logger.Info("using in-memory stores")
	}

	var lock scheduler.Lock = scheduler.NewLocalLock()
	client, err := redisplatform.New(context.Background(), cfg.Redis, o.registry)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		a.closers = append(a.closers, client.Close)
		checks("redis", client.Health)
		lock = redisplatform.NewLocker(client, "")
	}

	a.Accounts = accountservice.New(accounts,
		accountservice.WithClock(o.clock),
		accountservice.WithLogger(logger),
		accountservice.WithMetrics(accountmetrics.NewWith(o.registry)),
	)
	a.Directory = dirservice.New(directory, o.clock, logger)

	notifMetrics := notifmetrics.NewWith(o.registry)
	notifOpts := []notifservice.Option{
		notifservice.WithClock(o.clock),
		notifservice.WithLogger(logger),
		notifservice.WithMetrics(notifMetrics),
		notifservice.WithSendTimeout(cfg.Notify.SendTimeout),
	}
	a.Notifications = notifservice.New(notifs, settings, notifOpts...)

	a.Leases = leaseservice.New(leases, a.Directory,
		leaseservice.WithClock(o.clock),
		leaseservice.WithLogger(logger),
		leaseservice.WithMetrics(leasemetrics.NewWith(o.registry)),
		leaseservice.WithTx(leaseTx),
		leaseservice.WithNotificationPurger(a.Notifications),
	)

	send := o.sender
	if send == nil {
		built, closer, err := buildSender(cfg, logger, a.Accounts, a.Leases, notifMetrics, checks)
		if err != nil {
			return err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		send = built
	}
	a.Generator = notifservice.NewGenerator(notifs, a.Leases, notifOpts...)
	a.Processor = notifservice.NewProcessor(notifs, send, notifOpts...)

	jobMetrics := platformmetrics.NewWith(o.registry)
	a.NotificationJob = scheduler.NewNotificationJob(a.Accounts, a.Notifications, a.Generator, a.Processor,
		scheduler.WithClock(o.clock),
		scheduler.WithLogger(logger),
		scheduler.WithMetrics(jobMetrics),
		scheduler.WithLock(lock, cfg.Scheduler.LockTTL),
		scheduler.WithParallelism(cfg.Scheduler.Parallelism),
	)
	a.SweepJob = scheduler.NewSweepJob(a.Leases)

	a.Runner = scheduler.NewRunner(cfg.Scheduler.Location(), logger, jobMetrics)
	if err := a.Runner.Register(cfg.Scheduler.NotificationCron, a.NotificationJob); err != nil {
		return err
	}
	if err := a.Runner.Register(cfg.Scheduler.StatusSweepCron, a.SweepJob); err != nil {
		return err
	}
	return nil
}

// Migrate applies pending schema migrations. It requires DATABASE_URL.
func (a *App) Migrate(ctx context.Context) ([]string, error) {
	if a.pool == nil {
		return nil, errors.New("DATABASE_URL is not set; nothing to migrate")
	}
	return database.Migrate(ctx, a.pool.DB(), migrations.FS)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
