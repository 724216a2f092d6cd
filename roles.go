package auth

// UserRole is the user's role
type UserRole string

const (
	// RoleViewer is the default role assigned at registration (read only)
	RoleViewer UserRole = "viewer"
	// RoleAuditor can run and inspect audits in addition to viewing
	RoleAuditor UserRole = "auditor"
	// RoleAdmin has full access
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleViewer, RoleAuditor, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleViewer,
		RoleAuditor,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// RoleChecker decides whether a role may pass a gate. Checkers are built once
// per route at registration time and evaluated per request.
type RoleChecker func(role UserRole) bool

// NewRoleChecker builds a checker that allows exactly the given roles.
// Authorization is strict set membership against the allow list; roles carry
// no numeric hierarchy. An empty allow list admits any authenticated caller.
func NewRoleChecker(allowed ...UserRole) RoleChecker {
	if len(allowed) == 0 {
		return func(UserRole) bool { return true }
	}

	set := make(map[UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(role UserRole) bool {
		_, ok := set[role]
		return ok
	}
}

// Convenience allow lists for the gates this service exposes. Admin shows up
// in every stricter list by convention, not because of an ordering.
var (
	// AdminOnly admits the admin role
	AdminOnly = []UserRole{RoleAdmin}
	// AuditorOrAdmin admits auditors and admins
	AuditorOrAdmin = []UserRole{RoleAdmin, RoleAuditor}
	// AnyAuthenticated admits every authenticated user regardless of role
	AnyAuthenticated = []UserRole{}
)
