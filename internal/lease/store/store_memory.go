package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"leasekeeper/internal/lease/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

// InMemory stores leases in memory. Writers on a unit are serialized by the
// service's sharded transaction, so LockUnit is a no-op here.
type InMemory struct {
	mu     sync.RWMutex
	leases map[id.LeaseID]*models.Lease
}

func NewInMemory() *InMemory {
	return &InMemory{leases: make(map[id.LeaseID]*models.Lease)}
}

func (s *InMemory) LockUnit(_ context.Context, _ id.AccountID, _ id.UnitID) error {
	return nil
}

func (s *InMemory) ListBlocking(_ context.Context, accountID id.AccountID, unitID id.UnitID) ([]*models.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Lease, 0)
	for _, l := range s.leases {
		if l.AccountID == accountID && l.UnitID == unitID && l.Status.Blocking() {
			out = append(out, copyLease(l))
		}
	}
	return out, nil
}

func (s *InMemory) Create(_ context.Context, l *models.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[l.ID] = copyLease(l)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID, leaseID id.LeaseID) (*models.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leases[leaseID]
	if !ok || l.AccountID != accountID {
		return nil, sentinel.ErrNotFound
	}
	return copyLease(l), nil
}

func (s *InMemory) Update(_ context.Context, l *models.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.leases[l.ID]
	if !ok || existing.AccountID != l.AccountID {
		return sentinel.ErrNotFound
	}
	if existing.Status == models.StatusTerminated && l.Status != models.StatusTerminated {
		return sentinel.ErrInvalidState
	}
	s.leases[l.ID] = copyLease(l)
	return nil
}

func (s *InMemory) Delete(_ context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leases[leaseID]
	if !ok || l.AccountID != accountID {
		return sentinel.ErrNotFound
	}
	delete(s.leases, leaseID)
	return nil
}

// List returns one page of matching leases, newest start date first.
func (s *InMemory) List(_ context.Context, accountID id.AccountID, filter models.Filter) ([]*models.Lease, int, error) {
	s.mu.RLock()
	matched := make([]*models.Lease, 0)
	for _, l := range s.leases {
		if l.AccountID == accountID && filter.Matches(l) {
			matched = append(matched, copyLease(l))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartDate.Equal(matched[j].StartDate) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].StartDate.After(matched[j].StartDate)
	})

	total := len(matched)
	offset := filter.Offset()
	if offset >= total {
		return []*models.Lease{}, total, nil
	}
	end := offset + filter.PageSize
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// ListByEndDate returns leases with from <= endDate <= to, soonest first.
// A nil from means no lower bound; empty statuses means any status.
func (s *InMemory) ListByEndDate(_ context.Context, accountID id.AccountID, from *time.Time, to time.Time, statuses []models.Status) ([]*models.Lease, error) {
	s.mu.RLock()
	out := make([]*models.Lease, 0)
	for _, l := range s.leases {
		if l.AccountID != accountID || l.EndDate.After(to) {
			continue
		}
		if from != nil && l.EndDate.Before(*from) {
			continue
		}
		if len(statuses) > 0 && !hasStatus(statuses, l.Status) {
			continue
		}
		out = append(out, copyLease(l))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].EndDate.Before(out[j].EndDate)
	})
	return out, nil
}

func (s *InMemory) ListByStatuses(_ context.Context, statuses []models.Status) ([]*models.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Lease, 0)
	for _, l := range s.leases {
		if hasStatus(statuses, l.Status) {
			out = append(out, copyLease(l))
		}
	}
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, leaseID id.LeaseID, from, to models.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leases[leaseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if l.Status != from {
		return sentinel.ErrInvalidState
	}
	l.Status = to
	l.UpdatedAt = updatedAt
	return nil
}

func hasStatus(statuses []models.Status, s models.Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func copyLease(l *models.Lease) *models.Lease {
	cp := *l
	if l.Notes != nil {
		notes := *l.Notes
		cp.Notes = &notes
	}
	return &cp
}
