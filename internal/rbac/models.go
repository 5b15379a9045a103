// Package rbac derives effective roles from role grants and answers
// capability questions through a table-driven policy.
package rbac

import (
	"time"

	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
)

// Role is the effective privilege level of an identity.
// Total order of privilege: admin > hr > user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleHR    Role = "hr"
	RoleUser  Role = "user"
)

// rolePrivilege orders roles for precedence resolution. Higher wins.
var rolePrivilege = map[Role]int{
	RoleUser:  1,
	RoleHR:    2,
	RoleAdmin: 3,
}

// ParseRole validates a role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid role %q", s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	_, ok := rolePrivilege[r]
	return ok
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Capability is a named permission checked against a role.
type Capability string

const (
	CapManageUsers       Capability = "manage_users"
	CapManageThresholds  Capability = "manage_thresholds"
	CapManageDepartments Capability = "manage_departments"
	CapViewAllEmployees  Capability = "view_all_employees"
)

// Grant assigns a role to an identity. Identities may hold any number of
// grants, including duplicates; resolution collapses them deterministically.
type Grant struct {
	UserID    id.UserID `json:"user_id"`
	Role      Role      `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
}

// UserRoles is the admin-surface view of one identity's grants.
type UserRoles struct {
	UserID    id.UserID `json:"user_id"`
	Effective Role      `json:"effective_role"`
	Grants    []Grant   `json:"grants"`
}
