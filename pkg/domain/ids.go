// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "leasekeeper/pkg/domain-errors"
)

// Distinct ID types - the compiler rejects a LeaseID where an AccountID is expected.
// AccountID is the tenant scope; TenantID is the renter occupying a unit.
type (
	AccountID      uuid.UUID
	PropertyID     uuid.UUID
	UnitID         uuid.UUID
	TenantID       uuid.UUID
	LeaseID        uuid.UUID
	NotificationID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, CLI flags).

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParsePropertyID(s string) (PropertyID, error) {
	id, err := parseUUID(s, "property ID")
	return PropertyID(id), err
}

func ParseUnitID(s string) (UnitID, error) {
	id, err := parseUUID(s, "unit ID")
	return UnitID(id), err
}

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParseLeaseID(s string) (LeaseID, error) {
	id, err := parseUUID(s, "lease ID")
	return LeaseID(id), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	id, err := parseUUID(s, "notification ID")
	return NotificationID(id), err
}

// String methods - for logging and persistence.

func (id AccountID) String() string      { return uuid.UUID(id).String() }
func (id PropertyID) String() string     { return uuid.UUID(id).String() }
func (id UnitID) String() string         { return uuid.UUID(id).String() }
func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id LeaseID) String() string        { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id AccountID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UnitID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id LeaseID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets IDs travel as plain UUID strings in JSON responses.

func (id AccountID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id PropertyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id UnitID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id TenantID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id LeaseID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// parseUUID is the shared validation logic. The nil UUID is rejected so that
// a zero value never reaches a store lookup.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
