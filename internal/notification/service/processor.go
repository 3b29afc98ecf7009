package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
	platformsync "leasekeeper/pkg/platform/sync"
)

// PassResult counts one processing pass. Processed = Sent + Failed.
type PassResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// RetryResult reports a bulk retry: how many notifications were reset and the
// pass that followed.
type RetryResult struct {
	Retried int         `json:"retried"`
	Pass    *PassResult `json:"pass"`
}

// Processor delivers PENDING notifications. Every send outcome, including a
// panic inside the sender, ends as SENT or FAILED. Passes for one account are
// serialized within the process so a notification is not sent twice by
// overlapping passes.
type Processor struct {
	store  Store
	sender Sender
	passes *platformsync.ShardedMutex
	options
}

func NewProcessor(store Store, sender Sender, opts ...Option) *Processor {
	return &Processor{
		store:   store,
		sender:  sender,
		passes:  platformsync.NewShardedMutex(),
		options: buildOptions(opts),
	}
}

// ProcessPending sends each PENDING notification of the account once. Delivery
// failures are recorded on the notification, not returned; the error result
// only reports store failures.
func (p *Processor) ProcessPending(ctx context.Context, accountID id.AccountID) (*PassResult, error) {
	ctx, span := p.tracer.Start(ctx, "notification.process_pending",
		trace.WithAttributes(attribute.String("account_id", accountID.String())))
	defer span.End()

	key := accountID.String()
	p.passes.Lock(key)
	defer p.passes.Unlock(key)

	start := time.Now()
	pending, err := p.store.ListByStatus(ctx, accountID, models.StatusPending)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load pending")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending notifications")
	}

	result := &PassResult{}
	var errs []error
	for _, n := range pending {
		result.Processed++
		sendErr := p.deliver(ctx, n)
		now := clock.Now(ctx, p.clock)
		if sendErr == nil {
			n.MarkSent(now)
			result.Sent++
			p.metrics.IncDelivery("sent")
		} else {
			n.MarkFailed(sendErr.Error(), now)
			result.Failed++
			p.metrics.IncDelivery("failed")
			p.logger.WarnContext(ctx, "notification delivery failed",
				"account_id", accountID.String(),
				"notification_id", n.ID.String(),
				"lease_id", n.LeaseID.String(),
				"error", dErrors.Wrap(sendErr, dErrors.CodeDeliveryFailed, "send failed"),
				"reason", sendErr.Error(),
			)
		}
		if err := p.store.Update(ctx, n); err != nil {
			p.logger.ErrorContext(ctx, "failed to save delivery outcome",
				"notification_id", n.ID.String(),
				"status", string(n.Status),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("notification %s: %w", n.ID, err))
		}
	}

	span.SetAttributes(
		attribute.Int("processed", result.Processed),
		attribute.Int("sent", result.Sent),
		attribute.Int("failed", result.Failed),
	)
	if p.metrics != nil {
		p.metrics.PassDuration.Observe(time.Since(start).Seconds())
	}
	p.logger.InfoContext(ctx, "notification_pass_completed",
		"account_id", accountID.String(),
		"processed", result.Processed,
		"sent", result.Sent,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "save outcomes")
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "some delivery outcomes could not be saved")
	}
	return result, nil
}

// RetryOne resets a FAILED notification and runs a pass for its account. The
// returned notification is SENT or FAILED.
func (p *Processor) RetryOne(ctx context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error) {
	n, err := p.store.FindByID(ctx, accountID, notificationID)
	if err != nil {
		return nil, translateFind(err)
	}
	if n.Status != models.StatusFailed {
		return nil, dErrors.New(dErrors.CodeValidation, models.MsgRetryNotFailed)
	}

	err = p.store.ResetFailed(ctx, accountID, []id.NotificationID{notificationID}, clock.Now(ctx, p.clock))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// retried concurrently since it was read
			return nil, dErrors.New(dErrors.CodeValidation, models.MsgRetryNotFailed)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset notification")
	}
	if p.metrics != nil {
		p.metrics.Retries.Inc()
	}

	if _, err := p.ProcessPending(ctx, accountID); err != nil {
		return nil, err
	}
	n, err = p.store.FindByID(ctx, accountID, notificationID)
	if err != nil {
		return nil, translateFind(err)
	}
	return n, nil
}

// RetryBulk resets all listed notifications and runs one pass. Nothing is
// reset unless every id names a FAILED notification of the account.
func (p *Processor) RetryBulk(ctx context.Context, accountID id.AccountID, ids []id.NotificationID) (*RetryResult, error) {
	unique := slices.Clone(ids)
	slices.SortFunc(unique, func(a, b id.NotificationID) int {
		return strings.Compare(a.String(), b.String())
	})
	unique = slices.Compact(unique)
	if len(unique) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one notification id is required")
	}

	err := p.store.ResetFailed(ctx, accountID, unique, clock.Now(ctx, p.clock))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeValidation, models.MsgBulkNotFailed)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset notifications")
	}
	if p.metrics != nil {
		p.metrics.Retries.Add(float64(len(unique)))
	}
	p.logger.InfoContext(ctx, "notifications_reset_for_retry",
		"account_id", accountID.String(),
		"count", len(unique),
	)

	pass, err := p.ProcessPending(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &RetryResult{Retried: len(unique), Pass: pass}, nil
}

func (p *Processor) deliver(ctx context.Context, n *models.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	if p.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.sendTimeout)
		defer cancel()
	}

	start := time.Now()
	err = p.sender.Send(ctx, n)
	if p.metrics != nil {
		p.metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
	}
	return err
}
