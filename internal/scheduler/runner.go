package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"leasekeeper/internal/platform/metrics"
	dErrors "leasekeeper/pkg/domain-errors"
)

// Job is a unit of work the Runner can fire on a schedule or on demand.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner owns the single cron timer and the registered jobs. A job that is
// still running when its next tick arrives is skipped, not queued.
type Runner struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	jobs    map[string]Job
	entries map[string]cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRunner(loc *time.Location, logger *slog.Logger, m *metrics.Metrics) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		metrics: m,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register schedules job on a standard five-field cron spec.
func (r *Runner) Register(spec string, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := job.Name()
	if _, exists := r.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	entryID, err := r.cron.AddFunc(spec, func() {
		_ = r.run(r.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	r.jobs[name] = job
	r.entries[name] = entryID
	return nil
}

func (r *Runner) Start() {
	r.cron.Start()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, entryID := range r.entries {
		r.logger.Info("job scheduled", "job", name, "next_run", r.cron.Entry(entryID).Next)
	}
}

// Stop halts the timer and waits for running jobs. When ctx ends first the
// running jobs are cancelled.
func (r *Runner) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

// Next returns the next scheduled time of the named job, zero before Start.
func (r *Runner) Next(name string) time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entryID, ok := r.entries[name]
	if !ok {
		return time.Time{}
	}
	return r.cron.Entry(entryID).Next
}

// RunJob runs a registered job now, outside the timer.
func (r *Runner) RunJob(ctx context.Context, name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("job %s not registered", name))
	}
	return r.run(ctx, job)
}

func (r *Runner) run(ctx context.Context, job Job) error {
	started := time.Now()
	r.logger.InfoContext(ctx, "job_started", "job", job.Name())

	err := job.Run(ctx)
	r.metrics.ObserveJob(job.Name(), started, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "job_failed",
			"job", job.Name(),
			"error", err,
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return err
	}
	r.logger.InfoContext(ctx, "job_finished",
		"job", job.Name(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return nil
}

// cronLogger routes cron's own logging into slog. Its chatty info lines go to
// debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
