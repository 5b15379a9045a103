package rbac

// capabilityPolicy is the single source of truth for authorization decisions.
// Capabilities absent from the table fail closed for every role.
var capabilityPolicy = map[Capability]map[Role]bool{
	CapManageUsers: {
		RoleAdmin: true,
	},
	CapManageThresholds: {
		RoleAdmin: true,
	},
	CapManageDepartments: {
		RoleAdmin: true,
	},
	CapViewAllEmployees: {
		RoleAdmin: true,
		RoleHR:    true,
	},
}

// Resolve collapses zero or more grants into exactly one effective role.
// The highest-privilege grant wins; input order never affects the result.
// An empty grant set resolves to RoleUser - the fail-safe default.
func Resolve(grants []Grant) Role {
	effective := RoleUser
	for _, g := range grants {
		if rolePrivilege[g.Role] > rolePrivilege[effective] {
			effective = g.Role
		}
	}
	return effective
}

// Can reports whether the role holds the capability. Unknown capabilities and
// unknown roles both fail closed.
func Can(role Role, capability Capability) bool {
	allowed, ok := capabilityPolicy[capability]
	if !ok {
		return false
	}
	return allowed[role]
}
