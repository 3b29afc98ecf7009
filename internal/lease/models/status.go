package models

import (
	"time"

	"leasekeeper/pkg/platform/clock"
)

// Status of a lease. FUTURE, ACTIVE and EXPIRED are projections of the
// calendar; TERMINATED is set explicitly and is never recomputed.
type Status string

const (
	StatusFuture     Status = "FUTURE"
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusFuture, StatusActive, StatusExpired, StatusTerminated:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Blocking reports whether a lease in this status occupies its unit for
// overlap purposes.
func (s Status) Blocking() bool {
	return s == StatusFuture || s == StatusActive
}

// BlockingStatuses lists the statuses that take part in overlap checks and
// expiration scans.
var BlockingStatuses = []Status{StatusFuture, StatusActive}

// ComputeStatus maps a calendar day onto a lease period. Both bounds are
// inclusive: a lease is still ACTIVE on its end date. Time of day is ignored.
func ComputeStatus(today, startDate, endDate time.Time) Status {
	today, startDate, endDate = clock.Day(today), clock.Day(startDate), clock.Day(endDate)
	switch {
	case today.Before(startDate):
		return StatusFuture
	case today.After(endDate):
		return StatusExpired
	default:
		return StatusActive
	}
}
