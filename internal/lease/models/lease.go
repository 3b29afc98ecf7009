package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

const (
	MsgEndBeforeStart   = "End date must be after start date"
	MsgOverlap          = "This unit already has a lease during the selected period"
	MsgTerminatedFrozen = "Cannot update a terminated lease"
)

// Lease is one tenancy of one unit by one renter. StartDate and EndDate are
// calendar days held as UTC midnight.
type Lease struct {
	ID            id.LeaseID      `json:"id"`
	AccountID     id.AccountID    `json:"account_id"`
	UnitID        id.UnitID       `json:"unit_id"`
	TenantID      id.TenantID     `json:"tenant_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent"`
	PaymentTarget string          `json:"payment_target"`
	Notes         *string         `json:"notes,omitempty"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewLease validates the lease terms and derives the initial status from today.
func NewLease(
	leaseID id.LeaseID,
	accountID id.AccountID,
	unitID id.UnitID,
	tenantID id.TenantID,
	startDate, endDate time.Time,
	monthlyRent decimal.Decimal,
	paymentTarget string,
	notes *string,
	now time.Time,
) (*Lease, error) {
	if leaseID.IsNil() || accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "lease and account IDs required")
	}
	startDate, endDate = clock.Day(startDate), clock.Day(endDate)
	if err := validateTerms(startDate, endDate, monthlyRent); err != nil {
		return nil, err
	}
	paymentTarget = strings.TrimSpace(paymentTarget)
	if paymentTarget == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "payment target is required")
	}
	return &Lease{
		ID:            leaseID,
		AccountID:     accountID,
		UnitID:        unitID,
		TenantID:      tenantID,
		StartDate:     startDate,
		EndDate:       endDate,
		MonthlyRent:   monthlyRent,
		PaymentTarget: paymentTarget,
		Notes:         normalizeNotes(notes),
		Status:        ComputeStatus(now, startDate, endDate),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func validateTerms(startDate, endDate time.Time, rent decimal.Decimal) error {
	if !endDate.After(startDate) {
		return dErrors.New(dErrors.CodeValidation, MsgEndBeforeStart)
	}
	if rent.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "monthly rent cannot be negative")
	}
	return nil
}

func (l *Lease) Period() Period {
	return Period{Start: l.StartDate, End: l.EndDate}
}

// IsFrozen reports whether the lease rejects field edits.
func (l *Lease) IsFrozen() bool {
	return l.Status == StatusTerminated
}

// Terminate moves the lease to TERMINATED regardless of its dates. It returns
// false when the lease was already terminated and nothing changed.
func (l *Lease) Terminate(now time.Time) bool {
	if l.IsFrozen() {
		return false
	}
	l.Status = StatusTerminated
	l.UpdatedAt = now
	return true
}

// StatusOn is the status Refresh would leave on l for today.
func (l *Lease) StatusOn(today time.Time) Status {
	if l.IsFrozen() {
		return l.Status
	}
	return ComputeStatus(today, l.StartDate, l.EndDate)
}

// Refresh recomputes the calendar status for today and reports whether it
// changed. Terminated leases are left alone.
func (l *Lease) Refresh(today time.Time) bool {
	if l.IsFrozen() {
		return false
	}
	next := l.StatusOn(today)
	if next == l.Status {
		return false
	}
	l.Status = next
	return true
}

// Patch carries a partial update. Nil fields are left unchanged; a non-nil
// empty Notes clears the notes.
type Patch struct {
	UnitID        *id.UnitID
	TenantID      *id.TenantID
	StartDate     *time.Time
	EndDate       *time.Time
	MonthlyRent   *decimal.Decimal
	PaymentTarget *string
	Notes         *string
}

// MovesPeriod reports whether applying p could change which leases this one
// overlaps with.
func (p Patch) MovesPeriod(l *Lease) bool {
	if p.UnitID != nil && *p.UnitID != l.UnitID {
		return true
	}
	if p.StartDate != nil && !clock.Day(*p.StartDate).Equal(l.StartDate) {
		return true
	}
	return p.EndDate != nil && !clock.Day(*p.EndDate).Equal(l.EndDate)
}

// Apply validates and applies p, then recomputes the status for today.
// The lease is left untouched when an error is returned.
func (l *Lease) Apply(p Patch, now time.Time) error {
	if l.IsFrozen() {
		return dErrors.New(dErrors.CodeValidation, MsgTerminatedFrozen)
	}
	next := *l
	if p.UnitID != nil {
		next.UnitID = *p.UnitID
	}
	if p.TenantID != nil {
		next.TenantID = *p.TenantID
	}
	if p.StartDate != nil {
		next.StartDate = clock.Day(*p.StartDate)
	}
	if p.EndDate != nil {
		next.EndDate = clock.Day(*p.EndDate)
	}
	if p.MonthlyRent != nil {
		next.MonthlyRent = *p.MonthlyRent
	}
	if p.PaymentTarget != nil {
		target := strings.TrimSpace(*p.PaymentTarget)
		if target == "" {
			return dErrors.New(dErrors.CodeValidation, "payment target is required")
		}
		next.PaymentTarget = target
	}
	if p.Notes != nil {
		next.Notes = normalizeNotes(p.Notes)
	}
	if err := validateTerms(next.StartDate, next.EndDate, next.MonthlyRent); err != nil {
		return err
	}
	next.Status = ComputeStatus(now, next.StartDate, next.EndDate)
	next.UpdatedAt = now
	*l = next
	return nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
