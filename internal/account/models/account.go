package models

import (
	"net/mail"
	"strings"
	"time"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
)

// Status of an account. Only active accounts take part in the daily run.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Account is a tenant scope: every lease, unit and notification belongs to exactly one.
type Account struct {
	ID                id.AccountID `json:"id"`
	Name              string       `json:"name"`
	NotificationEmail string       `json:"notification_email,omitempty"`
	Status            Status       `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Deactivate removes the account from the scheduler's scope list.
func (a *Account) Deactivate(now time.Time) error {
	if !a.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already inactive")
	}
	a.Status = StatusInactive
	a.UpdatedAt = now
	return nil
}

func (a *Account) Reactivate(now time.Time) error {
	if a.IsActive() {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already active")
	}
	a.Status = StatusActive
	a.UpdatedAt = now
	return nil
}

func NewAccount(accountID id.AccountID, name, notificationEmail string, now time.Time) (*Account, error) {
	name = strings.TrimSpace(name)
	notificationEmail = strings.TrimSpace(notificationEmail)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account name must be 128 characters or less")
	}
	if notificationEmail != "" {
		if _, err := mail.ParseAddress(notificationEmail); err != nil {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification email is invalid")
		}
	}
	return &Account{
		ID:                accountID,
		Name:              name,
		NotificationEmail: notificationEmail,
		Status:            StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
