package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "leasekeeper/pkg/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter narrows a lease listing. TenantIDs and UnitIDs restrict the result to
// leases matching any of the listed values; a non-nil empty slice matches nothing.
// When both MatchTenantIDs and MatchUnitIDs are set (free-text search) a lease
// qualifies if it matches either set.
//
// Status matches the status a lease has on Today, the same status a listing
// reports after refreshing. A zero Today compares the stored status.
type Filter struct {
	TenantID       *id.TenantID
	UnitID         *id.UnitID
	UnitIDs        []id.UnitID
	MatchTenantIDs []id.TenantID
	MatchUnitIDs   []id.UnitID
	Search         bool
	Status         *Status
	Today          time.Time
	StartFrom      *time.Time
	StartTo        *time.Time
	EndFrom        *time.Time
	EndTo          *time.Time
	RentMin        *decimal.Decimal
	RentMax        *decimal.Decimal
	Page           int
	PageSize       int
}

// Normalize clamps pagination to its defaults and bounds.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

func (f *Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Matches applies every filter except pagination to l.
func (f *Filter) Matches(l *Lease) bool {
	if f.TenantID != nil && l.TenantID != *f.TenantID {
		return false
	}
	if f.UnitID != nil && l.UnitID != *f.UnitID {
		return false
	}
	if f.UnitIDs != nil && !containsUnit(f.UnitIDs, l.UnitID) {
		return false
	}
	if f.Search && !containsTenant(f.MatchTenantIDs, l.TenantID) && !containsUnit(f.MatchUnitIDs, l.UnitID) {
		return false
	}
	if f.Status != nil && f.statusOf(l) != *f.Status {
		return false
	}
	if f.StartFrom != nil && l.StartDate.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && l.StartDate.After(*f.StartTo) {
		return false
	}
	if f.EndFrom != nil && l.EndDate.Before(*f.EndFrom) {
		return false
	}
	if f.EndTo != nil && l.EndDate.After(*f.EndTo) {
		return false
	}
	if f.RentMin != nil && l.MonthlyRent.LessThan(*f.RentMin) {
		return false
	}
	if f.RentMax != nil && l.MonthlyRent.GreaterThan(*f.RentMax) {
		return false
	}
	return true
}

func (f *Filter) statusOf(l *Lease) Status {
	if f.Today.IsZero() {
		return l.Status
	}
	return l.StatusOn(f.Today)
}

func containsUnit(ids []id.UnitID, target id.UnitID) bool {
	for _, v := range ids {
		if v == target {
			return true
		}
	}
	return false
}

func containsTenant(ids []id.TenantID, target id.TenantID) bool {
	for _, v := range ids {
		if v == target {
			return true
		}
	}
	return false
}

// Page is one page of a lease listing.
type Page struct {
	Items      []*Lease `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}

func NewPage(items []*Lease, total int, f Filter) *Page {
	totalPages := 0
	if f.PageSize > 0 {
		totalPages = (total + f.PageSize - 1) / f.PageSize
	}
	if items == nil {
		items = []*Lease{}
	}
	return &Page{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize, TotalPages: totalPages}
}

// TimelineEntry is a lease on the expiration timeline with display labels.
type TimelineEntry struct {
	LeaseID         id.LeaseID `json:"lease_id"`
	EndDate         time.Time  `json:"end_date"`
	DaysRemaining   int        `json:"days_remaining"`
	Status          Status     `json:"status"`
	TenantName      string     `json:"tenant_name"`
	PropertyAddress string     `json:"property_address"`
	ApartmentNumber string     `json:"apartment_number"`
}
