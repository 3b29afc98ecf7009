package scheduler

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks ScopeSource,ThresholdSource,Generator,Processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"leasekeeper/internal/notification/service"
	"leasekeeper/internal/platform/metrics"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

const NotificationJobName = "daily-notifications"

// ScopeSource lists the accounts the daily run covers.
type ScopeSource interface {
	ListActiveScopes(ctx context.Context) ([]id.AccountID, error)
	IsActive(ctx context.Context, accountID id.AccountID) (bool, error)
}

type ThresholdSource interface {
	Thresholds(ctx context.Context, accountID id.AccountID) ([]int, error)
}

type Generator interface {
	Generate(ctx context.Context, accountID id.AccountID, thresholds []int) (int, error)
}

type Processor interface {
	ProcessPending(ctx context.Context, accountID id.AccountID) (*service.PassResult, error)
}

// ScopeResult is the outcome of one account's generate-then-deliver pair.
type ScopeResult struct {
	AccountID id.AccountID        `json:"account_id"`
	Created   int                 `json:"created"`
	Pass      *service.PassResult `json:"pass,omitempty"`
	Skipped   bool                `json:"skipped,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type RunReport struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Scopes     []ScopeResult `json:"scopes"`
}

// Failed counts scopes that ended with an error.
func (r *RunReport) Failed() int {
	n := 0
	for _, s := range r.Scopes {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// NotificationJob runs the generator and then the processor for every active
// account. A failure or panic in one account is recorded on its ScopeResult
// and never stops the others.
type NotificationJob struct {
	scopes      ScopeSource
	thresholds  ThresholdSource
	generator   Generator
	processor   Processor
	lock        Lock
	lockTTL     time.Duration
	parallelism int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	clock       clock.Clock
}

type NotificationOption func(*NotificationJob)

func WithLogger(logger *slog.Logger) NotificationOption {
	return func(j *NotificationJob) {
		if logger != nil {
			j.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) NotificationOption {
	return func(j *NotificationJob) {
		j.metrics = m
	}
}

func WithTracer(t trace.Tracer) NotificationOption {
	return func(j *NotificationJob) {
		if t != nil {
			j.tracer = t
		}
	}
}

func WithClock(c clock.Clock) NotificationOption {
	return func(j *NotificationJob) {
		if c != nil {
			j.clock = c
		}
	}
}

// WithLock serializes each account's run across processes. A scope whose
// lock is held elsewhere is reported as skipped.
func WithLock(lock Lock, ttl time.Duration) NotificationOption {
	return func(j *NotificationJob) {
		j.lock = lock
		if ttl > 0 {
			j.lockTTL = ttl
		}
	}
}

// WithParallelism bounds how many accounts run at once. Values below 2 keep
// the run sequential.
func WithParallelism(n int) NotificationOption {
	return func(j *NotificationJob) {
		j.parallelism = n
	}
}

func NewNotificationJob(
	scopes ScopeSource,
	thresholds ThresholdSource,
	generator Generator,
	processor Processor,
	opts ...NotificationOption,
) *NotificationJob {
	j := &NotificationJob{
		scopes:      scopes,
		thresholds:  thresholds,
		generator:   generator,
		processor:   processor,
		lockTTL:     30 * time.Minute,
		parallelism: 1,
		logger:      slog.Default(),
		tracer:      otel.Tracer("leasekeeper/scheduler"),
		clock:       clock.NewSystem(nil),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *NotificationJob) Name() string { return NotificationJobName }

// Run is the scheduled entry point. Scope failures are already recorded and
// logged, so only a failure to list the scopes fails the job.
func (j *NotificationJob) Run(ctx context.Context) error {
	report, err := j.RunAll(ctx)
	if err != nil {
		return err
	}
	if failed := report.Failed(); failed > 0 {
		j.logger.WarnContext(ctx, "daily notification run finished with failed scopes",
			"scopes", len(report.Scopes),
			"failed", failed,
		)
	}
	return nil
}

// TriggerManually runs one account when accountID is set, otherwise every
// active account. It shares the scheduled path's code and idempotency.
func (j *NotificationJob) TriggerManually(ctx context.Context, accountID *id.AccountID) (*RunReport, error) {
	if accountID == nil {
		j.logger.InfoContext(ctx, "manual_trigger", "scope", "all")
		return j.RunAll(ctx)
	}

	active, err := j.scopes.IsActive(ctx, *accountID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, dErrors.New(dErrors.CodeNotFound, "Account not found")
	}
	j.logger.InfoContext(ctx, "manual_trigger", "scope", accountID.String())

	report := &RunReport{StartedAt: clock.Now(ctx, j.clock)}
	report.Scopes = []ScopeResult{j.runScope(ctx, *accountID)}
	report.FinishedAt = clock.Now(ctx, j.clock)
	return report, nil
}

// RunAll processes every active account once.
func (j *NotificationJob) RunAll(ctx context.Context) (*RunReport, error) {
	ctx, span := j.tracer.Start(ctx, "scheduler.notification_run")
	defer span.End()

	scopes, err := j.scopes.ListActiveScopes(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list scopes")
		return nil, err
	}

	report := &RunReport{
		StartedAt: clock.Now(ctx, j.clock),
		Scopes:    make([]ScopeResult, len(scopes)),
	}
	if j.parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(j.parallelism)
		for i, accountID := range scopes {
			g.Go(func() error {
				report.Scopes[i] = j.runScope(ctx, accountID)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, accountID := range scopes {
			report.Scopes[i] = j.runScope(ctx, accountID)
		}
	}
	report.FinishedAt = clock.Now(ctx, j.clock)

	span.SetAttributes(
		attribute.Int("scopes", len(report.Scopes)),
		attribute.Int("failed", report.Failed()),
	)
	j.logger.InfoContext(ctx, "notification_run_completed",
		"scopes", len(report.Scopes),
		"failed", report.Failed(),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}

func (j *NotificationJob) runScope(ctx context.Context, accountID id.AccountID) (result ScopeResult) {
	result.AccountID = accountID
	ctx, span := j.tracer.Start(ctx, "scheduler.scope",
		trace.WithAttributes(attribute.String("account_id", accountID.String())))
	defer span.End()

	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = scopeFailure(fmt.Errorf("panic: %v", rec), "scope run panicked")
		}
		switch {
		case err != nil:
			result.Error = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, "scope run failed")
			j.metrics.IncScope("failed")
			j.logger.ErrorContext(ctx, "scope_run_failed",
				"account_id", accountID.String(),
				"error", err,
			)
		case !result.Skipped:
			j.metrics.IncScope("ok")
		}
	}()

	if j.lock != nil {
		release, acquired, lockErr := j.lock.TryLock(ctx, "notify:"+accountID.String(), j.lockTTL)
		if lockErr != nil {
			err = scopeFailure(lockErr, "failed to acquire scope lock")
			return result
		}
		if !acquired {
			result.Skipped = true
			j.metrics.IncSkipped()
			j.logger.InfoContext(ctx, "scope_run_skipped", "account_id", accountID.String(), "reason", "locked")
			return result
		}
		defer func() {
			if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
				j.logger.WarnContext(ctx, "failed to release scope lock", "account_id", accountID.String(), "error", relErr)
			}
		}()
	}

	thresholds, thrErr := j.thresholds.Thresholds(ctx, accountID)
	if thrErr != nil {
		err = scopeFailure(thrErr, "failed to load thresholds")
		return result
	}

	// A partial generation failure still lets the pass deliver what was created.
	var errs []error
	created, genErr := j.generator.Generate(ctx, accountID, thresholds)
	result.Created = created
	if genErr != nil {
		errs = append(errs, genErr)
	}
	pass, passErr := j.processor.ProcessPending(ctx, accountID)
	result.Pass = pass
	if passErr != nil {
		errs = append(errs, passErr)
	}
	if len(errs) > 0 {
		err = scopeFailure(errors.Join(errs...), "scope run incomplete")
		return result
	}

	span.SetAttributes(attribute.Int("created", created))
	j.logger.InfoContext(ctx, "scope_run_completed",
		"account_id", accountID.String(),
		"thresholds", thresholds,
		"created", created,
		"sent", pass.Sent,
		"failed", pass.Failed,
	)
	return result
}

func scopeFailure(err error, msg string) error {
	return &dErrors.Error{Code: dErrors.CodeScopeRunFailed, Message: msg + ": " + err.Error(), Err: err}
}
