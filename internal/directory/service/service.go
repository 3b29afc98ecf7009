package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"leasekeeper/internal/directory/models"
	"leasekeeper/internal/sentinel"
	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
	"leasekeeper/pkg/platform/clock"
)

// Store is the persistence contract for the directory. Every lookup is scoped
// to an account and reports records of other accounts as sentinel.ErrNotFound.
type Store interface {
	CreateProperty(ctx context.Context, p *models.Property) error
	FindProperty(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID) (*models.Property, error)
	ListProperties(ctx context.Context, accountID id.AccountID) ([]*models.Property, error)
	CreateUnit(ctx context.Context, u *models.Unit) error
	FindUnit(ctx context.Context, accountID id.AccountID, unitID id.UnitID) (*models.Unit, error)
	ListUnits(ctx context.Context, accountID id.AccountID, propertyID *id.PropertyID) ([]*models.Unit, error)
	CreateTenant(ctx context.Context, t *models.Tenant) error
	FindTenant(ctx context.Context, accountID id.AccountID, tenantID id.TenantID) (*models.Tenant, error)
	ListTenants(ctx context.Context, accountID id.AccountID) ([]*models.Tenant, error)
	SearchTenantIDs(ctx context.Context, accountID id.AccountID, term string) ([]id.TenantID, error)
	SearchUnitIDsByAddress(ctx context.Context, accountID id.AccountID, term string) ([]id.UnitID, error)
}

type Service struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
}

func New(store Store, c clock.Clock, logger *slog.Logger) *Service {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, clock: c, logger: logger}
}

func (s *Service) CreateProperty(ctx context.Context, accountID id.AccountID, address string) (*models.Property, error) {
	p, err := models.NewProperty(id.PropertyID(uuid.New()), accountID, address, clock.Now(ctx, s.clock))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateProperty(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create property")
	}
	s.logger.InfoContext(ctx, "property_created", "account_id", accountID.String(), "property_id", p.ID.String())
	return p, nil
}

func (s *Service) GetProperty(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID) (*models.Property, error) {
	p, err := s.store.FindProperty(ctx, accountID, propertyID)
	if err != nil {
		return nil, translate(err, "Property not found", "failed to load property")
	}
	return p, nil
}

func (s *Service) ListProperties(ctx context.Context, accountID id.AccountID) ([]*models.Property, error) {
	out, err := s.store.ListProperties(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	return out, nil
}

// CreateUnit adds an apartment to a property owned by the same account.
func (s *Service) CreateUnit(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID, apartment string) (*models.Unit, error) {
	if _, err := s.store.FindProperty(ctx, accountID, propertyID); err != nil {
		return nil, translate(err, "Property not found", "failed to load property")
	}
	u, err := models.NewUnit(id.UnitID(uuid.New()), accountID, propertyID, apartment, clock.Now(ctx, s.clock))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUnit(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "Apartment number already exists in this property")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create unit")
	}
	return u, nil
}

func (s *Service) ListUnits(ctx context.Context, accountID id.AccountID, propertyID *id.PropertyID) ([]*models.Unit, error) {
	out, err := s.store.ListUnits(ctx, accountID, propertyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list units")
	}
	return out, nil
}

func (s *Service) GetUnit(ctx context.Context, accountID id.AccountID, unitID id.UnitID) (*models.Unit, error) {
	u, err := s.store.FindUnit(ctx, accountID, unitID)
	if err != nil {
		return nil, translate(err, "Unit not found", "failed to load unit")
	}
	return u, nil
}

func (s *Service) CreateTenant(ctx context.Context, accountID id.AccountID, name, email, phone string) (*models.Tenant, error) {
	t, err := models.NewTenant(id.TenantID(uuid.New()), accountID, name, email, phone, clock.Now(ctx, s.clock))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
	}
	return t, nil
}

func (s *Service) ListTenants(ctx context.Context, accountID id.AccountID) ([]*models.Tenant, error) {
	out, err := s.store.ListTenants(ctx, accountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return out, nil
}

func (s *Service) GetTenant(ctx context.Context, accountID id.AccountID, tenantID id.TenantID) (*models.Tenant, error) {
	t, err := s.store.FindTenant(ctx, accountID, tenantID)
	if err != nil {
		return nil, translate(err, "Tenant not found", "failed to load tenant")
	}
	return t, nil
}

// SearchIDs resolves a free-text term to the renters whose name and the units
// whose property address contain it.
func (s *Service) SearchIDs(ctx context.Context, accountID id.AccountID, term string) ([]id.TenantID, []id.UnitID, error) {
	tenants, err := s.store.SearchTenantIDs(ctx, accountID, term)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search tenants")
	}
	units, err := s.store.SearchUnitIDsByAddress(ctx, accountID, term)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search units")
	}
	return tenants, units, nil
}

// UnitIDsForProperty lists the units of a property, used to filter leases by property.
func (s *Service) UnitIDsForProperty(ctx context.Context, accountID id.AccountID, propertyID id.PropertyID) ([]id.UnitID, error) {
	units, err := s.ListUnits(ctx, accountID, &propertyID)
	if err != nil {
		return nil, err
	}
	out := make([]id.UnitID, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out, nil
}

func translate(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
