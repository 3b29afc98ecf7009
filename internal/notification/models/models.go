package models

import (
	"strings"
	"time"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
)

type Type string

const (
	TypeLeaseExpiring Type = "LEASE_EXPIRING"
	TypeLeaseExpired  Type = "LEASE_EXPIRED"
)

func (t Type) IsValid() bool {
	return t == TypeLeaseExpiring || t == TypeLeaseExpired
}

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

const (
	MsgRetryNotFailed = "Can only retry failed notifications"
	MsgBulkNotFailed  = "Some notifications not found or not in FAILED status"
)

// Notification is one expiration notice for one lease at one threshold.
// (LeaseID, DaysBeforeExpiration) is unique.
type Notification struct {
	ID                   id.NotificationID `json:"id"`
	AccountID            id.AccountID      `json:"account_id"`
	LeaseID              id.LeaseID        `json:"lease_id"`
	Type                 Type              `json:"type"`
	DaysBeforeExpiration int               `json:"days_before_expiration"`
	Status               Status            `json:"status"`
	SentAt               *time.Time        `json:"sent_at,omitempty"`
	Error                *string           `json:"error,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// TypeFor picks the notice type: EXPIRED once today has reached the end date.
func TypeFor(today, endDate time.Time) Type {
	if !today.Before(endDate) {
		return TypeLeaseExpired
	}
	return TypeLeaseExpiring
}

func NewNotification(
	notificationID id.NotificationID,
	accountID id.AccountID,
	leaseID id.LeaseID,
	typ Type,
	daysBefore int,
	now time.Time,
) *Notification {
	return &Notification{
		ID:                   notificationID,
		AccountID:            accountID,
		LeaseID:              leaseID,
		Type:                 typ,
		DaysBeforeExpiration: daysBefore,
		Status:               StatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (n *Notification) MarkSent(now time.Time) {
	n.Status = StatusSent
	n.SentAt = &now
	n.Error = nil
	n.UpdatedAt = now
}

// MarkFailed records reason. An empty reason is stored as "unknown error" so a
// FAILED row always explains itself.
func (n *Notification) MarkFailed(reason string, now time.Time) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	n.Status = StatusFailed
	n.Error = &reason
	n.UpdatedAt = now
}

// ResetForRetry moves a FAILED notification back to PENDING.
func (n *Notification) ResetForRetry(now time.Time) error {
	if n.Status != StatusFailed {
		return dErrors.New(dErrors.CodeValidation, MsgRetryNotFailed)
	}
	n.Status = StatusPending
	n.Error = nil
	n.UpdatedAt = now
	return nil
}
