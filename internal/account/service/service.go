package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	accountmetrics "leasekeeper/internal/account/metrics"
	"leasekeeper/internal/account/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

// Store is the persistence contract for accounts.
type Store interface {
	CreateIfNameAvailable(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	ListActiveIDs(ctx context.Context) ([]id.AccountID, error)
}

// Service manages tenant scopes and enumerates the active ones for the scheduler.
type Service struct {
	store   Store
	clock   clock.Clock
	logger  *slog.Logger
	metrics *accountmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *accountmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  clock.NewSystem(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateAccount(ctx context.Context, name, notificationEmail string) (*models.Account, error) {
	a, err := models.NewAccount(id.AccountID(uuid.New()), name, notificationEmail, clock.Now(ctx, s.clock))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateIfNameAvailable(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "account name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	if s.metrics != nil {
		s.metrics.AccountsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "account_created", "account_id", a.ID.String())
	return a, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}
	a, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, wrapAccountErr(err, "failed to load account")
	}
	return a, nil
}

func (s *Service) DeactivateAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return s.transition(ctx, accountID, func(a *models.Account) error {
		return a.Deactivate(clock.Now(ctx, s.clock))
	}, "account_deactivated")
}

func (s *Service) ReactivateAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return s.transition(ctx, accountID, func(a *models.Account) error {
		return a.Reactivate(clock.Now(ctx, s.clock))
	}, "account_reactivated")
}

func (s *Service) transition(ctx context.Context, accountID id.AccountID, apply func(*models.Account) error, event string) (*models.Account, error) {
	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := apply(a); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, a); err != nil {
		return nil, wrapAccountErr(err, "failed to update account")
	}
	if event == "account_deactivated" && s.metrics != nil {
		s.metrics.AccountsDeactivated.Inc()
	}
	s.logger.InfoContext(ctx, event, "account_id", a.ID.String())
	return a, nil
}

// ListActiveScopes returns every account the daily job should process.
func (s *Service) ListActiveScopes(ctx context.Context) ([]id.AccountID, error) {
	ids, err := s.store.ListActiveIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active accounts")
	}
	return ids, nil
}

// IsActive reports whether the account exists and is active.
func (s *Service) IsActive(ctx context.Context, accountID id.AccountID) (bool, error) {
	a, err := s.store.FindByID(ctx, accountID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return a.IsActive(), nil
}

// NotificationEmail returns the address expiration notices for the account go to.
func (s *Service) NotificationEmail(ctx context.Context, accountID id.AccountID) (string, error) {
	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if a.NotificationEmail == "" {
		return "", dErrors.New(dErrors.CodeValidation, "account has no notification email")
	}
	return a.NotificationEmail, nil
}

func wrapAccountErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "Account not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
