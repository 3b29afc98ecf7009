// Package sender holds the delivery channels for expiration notices: a log
// sink for development, a Kafka event publisher and Resend email. Breaker
// wraps any of them with a circuit breaker.
package sender

import (
	"context"
	"log/slog"

	"leasekeeper/internal/notification/models"
)

// Func adapts a function to the Sender contract.
type Func func(ctx context.Context, n *models.Notification) error

func (f Func) Send(ctx context.Context, n *models.Notification) error {
	return f(ctx, n)
}

// Log records each notification as a structured log line and always succeeds.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, n *models.Notification) error {
	l.logger.InfoContext(ctx, "lease_notification",
		"account_id", n.AccountID.String(),
		"notification_id", n.ID.String(),
		"lease_id", n.LeaseID.String(),
		"type", string(n.Type),
		"days_before_expiration", n.DaysBeforeExpiration,
	)
	return nil
}
