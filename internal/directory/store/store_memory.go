package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"leasekeeper/internal/directory/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

// InMemory keeps properties, units and renters in maps. Lookups are scoped:
// a record owned by another account is reported as not found.
type InMemory struct {
	mu         sync.RWMutex
	properties map[id.PropertyID]*models.Property
	units      map[id.UnitID]*models.Unit
	tenants    map[id.TenantID]*models.Tenant
}

func NewInMemory() *InMemory {
	return &InMemory{
		properties: make(map[id.PropertyID]*models.Property),
		units:      make(map[id.UnitID]*models.Unit),
		tenants:    make(map[id.TenantID]*models.Tenant),
	}
}

func (s *InMemory) CreateProperty(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.properties[p.ID] = &cp
	return nil
}

func (s *InMemory) FindProperty(_ context.Context, accountID id.AccountID, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[propertyID]
	if !ok || p.AccountID != accountID {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) ListProperties(_ context.Context, accountID id.AccountID) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Property, 0)
	for _, p := range s.properties {
		if p.AccountID == accountID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *InMemory) CreateUnit(_ context.Context, u *models.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.units {
		if existing.PropertyID == u.PropertyID && existing.ApartmentNumber == u.ApartmentNumber {
			return fmt.Errorf("apartment already exists in property: %w", sentinel.ErrDuplicate)
		}
	}
	cp := *u
	s.units[u.ID] = &cp
	return nil
}

func (s *InMemory) FindUnit(_ context.Context, accountID id.AccountID, unitID id.UnitID) (*models.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitID]
	if !ok || u.AccountID != accountID {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ListUnits returns the account's units, narrowed to one property when propertyID is set.
func (s *InMemory) ListUnits(_ context.Context, accountID id.AccountID, propertyID *id.PropertyID) ([]*models.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Unit, 0)
	for _, u := range s.units {
		if u.AccountID != accountID {
			continue
		}
		if propertyID != nil && u.PropertyID != *propertyID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApartmentNumber < out[j].ApartmentNumber })
	return out, nil
}

func (s *InMemory) CreateTenant(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *InMemory) FindTenant(_ context.Context, accountID id.AccountID, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok || t.AccountID != accountID {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemory) ListTenants(_ context.Context, accountID id.AccountID) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tenant, 0)
	for _, t := range s.tenants {
		if t.AccountID == accountID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SearchTenantIDs matches renter names case-insensitively.
func (s *InMemory) SearchTenantIDs(_ context.Context, accountID id.AccountID, term string) ([]id.TenantID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term = strings.ToLower(term)
	out := make([]id.TenantID, 0)
	for _, t := range s.tenants {
		if t.AccountID == accountID && strings.Contains(strings.ToLower(t.Name), term) {
			out = append(out, t.ID)
		}
	}
	return out, nil
}

// SearchUnitIDsByAddress returns units whose property address contains term.
func (s *InMemory) SearchUnitIDsByAddress(_ context.Context, accountID id.AccountID, term string) ([]id.UnitID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term = strings.ToLower(term)
	out := make([]id.UnitID, 0)
	for _, u := range s.units {
		if u.AccountID != accountID {
			continue
		}
		p, ok := s.properties[u.PropertyID]
		if ok && strings.Contains(strings.ToLower(p.Address), term) {
			out = append(out, u.ID)
		}
	}
	return out, nil
}
