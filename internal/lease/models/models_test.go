package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

func day(s string) time.Time {
	d, err := clock.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeStatus(t *testing.T) {
	start, end := day("2024-01-01"), day("2024-06-30")

	cases := []struct {
		name  string
		today time.Time
		want  Status
	}{
		{"day before start", day("2023-12-31"), StatusFuture},
		{"on start date", start, StatusActive},
		{"mid period", day("2024-03-15"), StatusActive},
		{"on end date", end, StatusActive},
		{"day after end", day("2024-07-01"), StatusExpired},
		{"late on end date still active", end.Add(23*time.Hour + 59*time.Minute), StatusActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeStatus(tc.today, start, end))
		})
	}
}

func TestPeriodOverlaps(t *testing.T) {
	a := NewPeriod(day("2024-01-01"), day("2024-06-30"))

	cases := []struct {
		name string
		b    Period
		want bool
	}{
		{"boundary touch", NewPeriod(day("2024-06-30"), day("2024-12-31")), true},
		{"day after", NewPeriod(day("2024-07-01"), day("2024-12-31")), false},
		{"contained", NewPeriod(day("2024-02-01"), day("2024-03-01")), true},
		{"containing", NewPeriod(day("2023-01-01"), day("2025-01-01")), true},
		{"partial start", NewPeriod(day("2023-10-01"), day("2024-01-01")), true},
		{"entirely before", NewPeriod(day("2023-01-01"), day("2023-12-31")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(a), "overlap must be symmetric")
		})
	}
}

func newTestLease(t *testing.T, accountID id.AccountID, unitID id.UnitID, start, end string, today string) *Lease {
	t.Helper()
	l, err := NewLease(id.LeaseID(uuid.New()), accountID, unitID, id.TenantID(uuid.New()),
		day(start), day(end), decimal.NewFromInt(4500), "Bank Hapoalim 12-345", nil, day(today))
	require.NoError(t, err)
	return l
}

func TestHasConflict(t *testing.T) {
	accountID := id.AccountID(uuid.New())
	unitID := id.UnitID(uuid.New())
	existing := newTestLease(t, accountID, unitID, "2024-01-01", "2024-06-30", "2024-03-01")
	candidate := NewPeriod(day("2024-06-30"), day("2024-12-31"))

	t.Run("boundary touch on same unit conflicts", func(t *testing.T) {
		assert.True(t, HasConflict(accountID, unitID, candidate, nil, []*Lease{existing}))
	})

	t.Run("other unit never conflicts", func(t *testing.T) {
		assert.False(t, HasConflict(accountID, id.UnitID(uuid.New()), candidate, nil, []*Lease{existing}))
	})

	t.Run("other account never conflicts", func(t *testing.T) {
		assert.False(t, HasConflict(id.AccountID(uuid.New()), unitID, candidate, nil, []*Lease{existing}))
	})

	t.Run("excluded lease is skipped", func(t *testing.T) {
		assert.False(t, HasConflict(accountID, unitID, candidate, &existing.ID, []*Lease{existing}))
	})

	t.Run("terminated and expired leases never conflict", func(t *testing.T) {
		terminated := *existing
		terminated.Status = StatusTerminated
		expired := *existing
		expired.Status = StatusExpired
		assert.False(t, HasConflict(accountID, unitID, candidate, nil, []*Lease{&terminated, &expired}))
	})
}

func TestNewLease_Validation(t *testing.T) {
	accountID := id.AccountID(uuid.New())

	t.Run("end equal to start rejected", func(t *testing.T) {
		_, err := NewLease(id.LeaseID(uuid.New()), accountID, id.UnitID(uuid.New()), id.TenantID(uuid.New()),
			day("2024-01-01"), day("2024-01-01"), decimal.Zero, "cash", nil, day("2024-01-01"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, MsgEndBeforeStart, err.Error())
	})

	t.Run("negative rent rejected", func(t *testing.T) {
		_, err := NewLease(id.LeaseID(uuid.New()), accountID, id.UnitID(uuid.New()), id.TenantID(uuid.New()),
			day("2024-01-01"), day("2024-02-01"), decimal.NewFromInt(-1), "cash", nil, day("2024-01-01"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("initial status derived from today", func(t *testing.T) {
		l := newTestLease(t, accountID, id.UnitID(uuid.New()), "2024-05-01", "2025-04-30", "2024-04-01")
		assert.Equal(t, StatusFuture, l.Status)
	})

	t.Run("blank notes dropped", func(t *testing.T) {
		blank := "   "
		l, err := NewLease(id.LeaseID(uuid.New()), accountID, id.UnitID(uuid.New()), id.TenantID(uuid.New()),
			day("2024-01-01"), day("2024-02-01"), decimal.Zero, "cash", &blank, day("2024-01-01"))
		require.NoError(t, err)
		assert.Nil(t, l.Notes)
	})
}

func TestTerminateAndRefresh(t *testing.T) {
	l := newTestLease(t, id.AccountID(uuid.New()), id.UnitID(uuid.New()), "2024-01-01", "2024-12-31", "2024-03-01")
	require.Equal(t, StatusActive, l.Status)

	assert.True(t, l.Terminate(day("2024-03-02")))
	assert.Equal(t, StatusTerminated, l.Status)
	assert.False(t, l.Terminate(day("2024-03-03")), "second terminate is a no-op")

	assert.False(t, l.Refresh(day("2024-04-01")))
	assert.Equal(t, StatusTerminated, l.Status, "refresh never revives a terminated lease")
}

func TestRefresh_ReportsChange(t *testing.T) {
	l := newTestLease(t, id.AccountID(uuid.New()), id.UnitID(uuid.New()), "2024-01-01", "2024-06-30", "2023-12-01")
	require.Equal(t, StatusFuture, l.Status)

	assert.False(t, l.Refresh(day("2023-12-31")))
	assert.True(t, l.Refresh(day("2024-01-01")))
	assert.Equal(t, StatusActive, l.Status)
	assert.True(t, l.Refresh(day("2024-07-01")))
	assert.Equal(t, StatusExpired, l.Status)
}

func TestApply(t *testing.T) {
	base := func() *Lease {
		return newTestLease(t, id.AccountID(uuid.New()), id.UnitID(uuid.New()), "2024-01-01", "2024-06-30", "2024-03-01")
	}

	t.Run("terminated lease is frozen", func(t *testing.T) {
		l := base()
		l.Terminate(day("2024-03-01"))
		rent := decimal.NewFromInt(1)
		err := l.Apply(Patch{MonthlyRent: &rent}, day("2024-03-02"))
		require.Error(t, err)
		assert.Equal(t, MsgTerminatedFrozen, err.Error())
	})

	t.Run("invalid dates leave lease untouched", func(t *testing.T) {
		l := base()
		before := *l
		end := day("2023-12-01")
		err := l.Apply(Patch{EndDate: &end}, day("2024-03-02"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, before, *l)
	})

	t.Run("status recomputed from new dates", func(t *testing.T) {
		l := base()
		end := day("2024-02-01")
		require.NoError(t, l.Apply(Patch{EndDate: &end}, day("2024-03-01")))
		assert.Equal(t, StatusExpired, l.Status)
	})

	t.Run("moves period only when unit or dates differ", func(t *testing.T) {
		l := base()
		same := l.StartDate
		target := "Leumi"
		assert.False(t, Patch{StartDate: &same, PaymentTarget: &target}.MovesPeriod(l))
		other := id.UnitID(uuid.New())
		assert.True(t, Patch{UnitID: &other}.MovesPeriod(l))
	})
}

func TestFilterMatchesAndPaging(t *testing.T) {
	l := newTestLease(t, id.AccountID(uuid.New()), id.UnitID(uuid.New()), "2024-01-01", "2024-06-30", "2024-03-01")

	f := Filter{Page: 0, PageSize: 500}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)

	floor := decimal.NewFromInt(5000)
	assert.False(t, (&Filter{RentMin: &floor}).Matches(l))

	assert.False(t, (&Filter{Search: true}).Matches(l), "search with no hits matches nothing")
	assert.True(t, (&Filter{Search: true, MatchUnitIDs: []id.UnitID{l.UnitID}}).Matches(l))

	expired := StatusExpired
	afterEnd := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	assert.False(t, (&Filter{Status: &expired}).Matches(l), "stored status is ACTIVE")
	assert.True(t, (&Filter{Status: &expired, Today: afterEnd}).Matches(l))
	l.Terminate(afterEnd)
	assert.False(t, (&Filter{Status: &expired, Today: afterEnd}).Matches(l), "terminated stays terminated")

	page := NewPage(nil, 21, Filter{Page: 2, PageSize: 10})
	assert.Equal(t, 3, page.TotalPages)
	assert.NotNil(t, page.Items)
}
