// Package models holds the reference records a lease points at: properties,
// the units inside them, and the renters who occupy units.
package models

import (
	"net/mail"
	"strings"
	"time"

	id "leasekeeper/pkg/domain"
	dErrors "leasekeeper/pkg/domain-errors"
)

type Property struct {
	ID        id.PropertyID `json:"id"`
	AccountID id.AccountID  `json:"account_id"`
	Address   string        `json:"address"`
	CreatedAt time.Time     `json:"created_at"`
}

// Unit is a rentable apartment. Apartment numbers are unique within a property.
type Unit struct {
	ID              id.UnitID     `json:"id"`
	AccountID       id.AccountID  `json:"account_id"`
	PropertyID      id.PropertyID `json:"property_id"`
	ApartmentNumber string        `json:"apartment_number"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Tenant is the renter named on a lease. It is unrelated to the account scope.
type Tenant struct {
	ID        id.TenantID  `json:"id"`
	AccountID id.AccountID `json:"account_id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewProperty(propertyID id.PropertyID, accountID id.AccountID, address string, now time.Time) (*Property, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "property address cannot be empty")
	}
	return &Property{ID: propertyID, AccountID: accountID, Address: address, CreatedAt: now}, nil
}

func NewUnit(unitID id.UnitID, accountID id.AccountID, propertyID id.PropertyID, apartment string, now time.Time) (*Unit, error) {
	apartment = strings.TrimSpace(apartment)
	if apartment == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "apartment number cannot be empty")
	}
	if propertyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unit must belong to a property")
	}
	return &Unit{ID: unitID, AccountID: accountID, PropertyID: propertyID, ApartmentNumber: apartment, CreatedAt: now}, nil
}

func NewTenant(tenantID id.TenantID, accountID id.AccountID, name, email, phone string, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant email is invalid")
		}
	}
	return &Tenant{
		ID:        tenantID,
		AccountID: accountID,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(phone),
		CreatedAt: now,
	}, nil
}
