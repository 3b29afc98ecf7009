package models

import (
	"time"

	id "leasekeeper/pkg/domain"
	"leasekeeper/pkg/platform/clock"
)

// Period is a closed date interval [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: clock.Day(start), End: clock.Day(end)}
}

// Overlaps reports whether two closed intervals share at least one day.
// Touching bounds count as overlap.
func (p Period) Overlaps(other Period) bool {
	return !p.Start.After(other.End) && !other.Start.After(p.End)
}

// HasConflict reports whether candidate intersects any blocking lease on the
// same unit and account in existing. The lease named by exclude is skipped so
// an update can be checked against every other lease on the unit.
func HasConflict(accountID id.AccountID, unitID id.UnitID, candidate Period, exclude *id.LeaseID, existing []*Lease) bool {
	return FirstConflict(accountID, unitID, candidate, exclude, existing) != nil
}

// FirstConflict returns the first lease that conflicts with candidate, or nil.
func FirstConflict(accountID id.AccountID, unitID id.UnitID, candidate Period, exclude *id.LeaseID, existing []*Lease) *Lease {
	for _, l := range existing {
		if l == nil || l.AccountID != accountID || l.UnitID != unitID {
			continue
		}
		if exclude != nil && l.ID == *exclude {
			continue
		}
		if !l.Status.Blocking() {
			continue
		}
		if l.Period().Overlaps(candidate) {
			return l
		}
	}
	return nil
}
