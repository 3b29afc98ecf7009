package service

import (
	"context"

	"leasekeeper/internal/lease/models"
	id "leasekeeper/pkg/domain"
)

// labelCache resolves display labels for timeline entries, loading each
// unit, property and renter at most once per call.
type labelCache struct {
	directory  Directory
	accountID  id.AccountID
	units      map[id.UnitID]unitLabel
	tenants    map[id.TenantID]string
	properties map[id.PropertyID]string
}

type unitLabel struct {
	apartment  string
	propertyID id.PropertyID
	ok         bool
}

func newLabelCache(directory Directory, accountID id.AccountID) *labelCache {
	return &labelCache{
		directory:  directory,
		accountID:  accountID,
		units:      make(map[id.UnitID]unitLabel),
		tenants:    make(map[id.TenantID]string),
		properties: make(map[id.PropertyID]string),
	}
}

// fill sets the labels it can resolve. Missing records leave labels empty.
func (c *labelCache) fill(ctx context.Context, l *models.Lease, entry *models.TimelineEntry) {
	unit, seen := c.units[l.UnitID]
	if !seen {
		if u, err := c.directory.GetUnit(ctx, c.accountID, l.UnitID); err == nil {
			unit = unitLabel{apartment: u.ApartmentNumber, propertyID: u.PropertyID, ok: true}
		}
		c.units[l.UnitID] = unit
	}
	if unit.ok {
		entry.ApartmentNumber = unit.apartment
		address, seen := c.properties[unit.propertyID]
		if !seen {
			if p, err := c.directory.GetProperty(ctx, c.accountID, unit.propertyID); err == nil {
				address = p.Address
			}
			c.properties[unit.propertyID] = address
		}
		entry.PropertyAddress = address
	}

	name, seen := c.tenants[l.TenantID]
	if !seen {
		if t, err := c.directory.GetTenant(ctx, c.accountID, l.TenantID); err == nil {
			name = t.Name
		}
		c.tenants[l.TenantID] = name
	}
	entry.TenantName = name
}
