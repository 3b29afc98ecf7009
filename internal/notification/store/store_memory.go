package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"leasekeeper/internal/notification/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
)

type thresholdKey struct {
	leaseID id.LeaseID
	days    int
}

// InMemory stores notifications in memory. The threshold index plays the part
// of the (lease_id, days_before_expiration) unique constraint.
type InMemory struct {
	mu          sync.RWMutex
	byID        map[id.NotificationID]*models.Notification
	byThreshold map[thresholdKey]id.NotificationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:        make(map[id.NotificationID]*models.Notification),
		byThreshold: make(map[thresholdKey]id.NotificationID),
	}
}

// CreateIfAbsent inserts n unless its lease already has a notification for the
// same threshold. It reports whether a row was written.
func (s *InMemory) CreateIfAbsent(_ context.Context, n *models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := thresholdKey{leaseID: n.LeaseID, days: n.DaysBeforeExpiration}
	if _, exists := s.byThreshold[key]; exists {
		return false, nil
	}
	s.byID[n.ID] = copyNotification(n)
	s.byThreshold[key] = n.ID
	return true, nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID, notificationID id.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[notificationID]
	if !ok || n.AccountID != accountID {
		return nil, sentinel.ErrNotFound
	}
	return copyNotification(n), nil
}

// ListByStatus returns the account's notifications in status, oldest first.
func (s *InMemory) ListByStatus(_ context.Context, accountID id.AccountID, status models.Status) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Notification, 0)
	for _, n := range s.byID {
		if n.AccountID == accountID && n.Status == status {
			out = append(out, copyNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[n.ID]
	if !ok || existing.AccountID != n.AccountID {
		return sentinel.ErrNotFound
	}
	s.byID[n.ID] = copyNotification(n)
	return nil
}

// ResetFailed moves every listed notification from FAILED to PENDING, or none
// of them when any is missing or in another status.
func (s *InMemory) ResetFailed(_ context.Context, accountID id.AccountID, ids []id.NotificationID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, nid := range ids {
		n, ok := s.byID[nid]
		if !ok || n.AccountID != accountID || n.Status != models.StatusFailed {
			return sentinel.ErrInvalidState
		}
	}
	for _, nid := range ids {
		n := s.byID[nid]
		n.Status = models.StatusPending
		n.Error = nil
		n.UpdatedAt = now
	}
	return nil
}

// List returns one page of matching notifications, newest first, and the
// total match count.
func (s *InMemory) List(_ context.Context, accountID id.AccountID, filter models.Filter) ([]*models.Notification, int, error) {
	s.mu.RLock()
	matched := make([]*models.Notification, 0)
	for _, n := range s.byID {
		if n.AccountID == accountID && filter.Matches(n) {
			matched = append(matched, copyNotification(n))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset(), total)
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (s *InMemory) DeleteByLease(_ context.Context, accountID id.AccountID, leaseID id.LeaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for nid, n := range s.byID {
		if n.AccountID == accountID && n.LeaseID == leaseID {
			delete(s.byID, nid)
			delete(s.byThreshold, thresholdKey{leaseID: n.LeaseID, days: n.DaysBeforeExpiration})
		}
	}
	return nil
}

func copyNotification(n *models.Notification) *models.Notification {
	c := *n
	if n.SentAt != nil {
		t := *n.SentAt
		c.SentAt = &t
	}
	if n.Error != nil {
		e := *n.Error
		c.Error = &e
	}
	return &c
}

// SettingsInMemory stores per-account thresholds in memory.
type SettingsInMemory struct {
	mu       sync.Mutex
	settings map[id.AccountID]*models.Settings
}

func NewSettingsInMemory() *SettingsInMemory {
	return &SettingsInMemory{settings: make(map[id.AccountID]*models.Settings)}
}

// GetOrCreate returns the account's settings, writing defaults first when none exist.
func (s *SettingsInMemory) GetOrCreate(_ context.Context, accountID id.AccountID, defaults []int, now time.Time) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.settings[accountID]; ok {
		return copySettings(existing), nil
	}
	created := models.NewSettings(accountID, defaults, now)
	s.settings[accountID] = created
	return copySettings(created), nil
}

// Save upserts the account's settings, keeping the original creation time.
func (s *SettingsInMemory) Save(_ context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := copySettings(settings)
	if existing, ok := s.settings[settings.AccountID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.settings[settings.AccountID] = stored
	return nil
}

func copySettings(in *models.Settings) *models.Settings {
	c := *in
	c.Days = slices.Clone(in.Days)
	return &c
}
