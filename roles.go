package auth

// Role is the account role. The set is closed; values outside of it only
// exist before ParseRole has been applied at the boundary.
type Role string

const (
	// RoleOfficer is a field officer
	RoleOfficer Role = "officer"
	// RoleInvestigator is a case investigator
	RoleInvestigator Role = "investigator"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleOfficer, RoleInvestigator:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// AllRoles returns every role that can be assigned at registration
func AllRoles() []Role {
	return []Role{
		RoleOfficer,
		RoleInvestigator,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// roleValues is the role set in the shape validation.In expects
func roleValues() []any {
	out := make([]any, 0, 2)
	for _, r := range AllRoles() {
		out = append(out, string(r))
	}
	return out
}
