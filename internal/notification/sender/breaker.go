package sender

import (
	"context"
	"errors"

	"leasekeeper/internal/notification/models"
	"leasekeeper/pkg/platform/circuit"
)

// ErrCircuitOpen is the failure reason recorded while the breaker is open.
var ErrCircuitOpen = errors.New("delivery channel unavailable: circuit open")

type Target interface {
	Send(ctx context.Context, n *models.Notification) error
}

// Breaker stops calling a failing channel until its cooldown passes. While
// open, notifications fail fast and can be retried later.
type Breaker struct {
	next    Target
	breaker *circuit.Breaker
}

func NewBreaker(next Target, breaker *circuit.Breaker) *Breaker {
	return &Breaker{next: next, breaker: breaker}
}

func (b *Breaker) Send(ctx context.Context, n *models.Notification) error {
	if !b.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := b.next.Send(ctx, n); err != nil {
		b.breaker.RecordFailure()
		return err
	}
	b.breaker.RecordSuccess()
	return nil
}
