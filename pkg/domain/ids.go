package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UserID identifies an authenticated actor. Events are addressed to a UserID
// and role grants are owned by one.
//
// Usage: construct via ParseUserID at trust boundaries; direct casting from
// uuid.UUID is reserved for code that already holds a validated value.
type UserID uuid.UUID

// ParseUserID validates and returns a UserID from external input.
//
// Errors: returns an error when the input is empty or not a valid UUID.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return UserID{}, fmt.Errorf("user id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id: %w", err)
	}
	return UserID(u), nil
}

// NewUserID returns a freshly generated UserID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// IsNil reports whether the ID is the zero UUID.
func (id UserID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// String returns the canonical UUID string form.
func (id UserID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText renders the ID as its canonical UUID string for JSON and logs.
func (id UserID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical UUID string form.
func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// EmployeeID identifies an employee record referenced by an event
// (e.g., the subject of a high-risk alert). Employee records themselves live
// outside this service.
type EmployeeID uuid.UUID

// ParseEmployeeID validates and returns an EmployeeID from external input.
func ParseEmployeeID(s string) (EmployeeID, error) {
	if s == "" {
		return EmployeeID{}, fmt.Errorf("employee id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return EmployeeID{}, fmt.Errorf("invalid employee id: %w", err)
	}
	return EmployeeID(u), nil
}

// NewEmployeeID returns a freshly generated EmployeeID.
func NewEmployeeID() EmployeeID {
	return EmployeeID(uuid.New())
}

// IsNil reports whether the ID is the zero UUID.
func (id EmployeeID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// String returns the canonical UUID string form.
func (id EmployeeID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText renders the ID as its canonical UUID string for JSON and logs.
func (id EmployeeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical UUID string form.
func (id *EmployeeID) UnmarshalText(text []byte) error {
	parsed, err := ParseEmployeeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
