package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"leasekeeper/internal/account/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

// InMemory stores accounts in memory for local runs and tests.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	nameIdx  map[string]id.AccountID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[id.AccountID]*models.Account),
		nameIdx:  make(map[string]id.AccountID),
	}
}

// CreateIfNameAvailable creates the account unless the name is taken (case-insensitive).
func (s *InMemory) CreateIfNameAvailable(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(a.Name)
	if _, exists := s.nameIdx[lower]; exists {
		return fmt.Errorf("account name must be unique: %w", sentinel.ErrDuplicate)
	}
	cp := *a
	s.accounts[a.ID] = &cp
	s.nameIdx[lower] = a.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

// ListActiveIDs returns active account IDs ordered by creation time.
func (s *InMemory) ListActiveIDs(_ context.Context) ([]id.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.IsActive() {
			active = append(active, a)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].ID.String() < active[j].ID.String()
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	ids := make([]id.AccountID, len(active))
	for i, a := range active {
		ids[i] = a.ID
	}
	return ids, nil
}
