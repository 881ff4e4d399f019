package auth

// Role is a principal's role. RoleAdmin is structurally distinct from the
// user roles: administrators live in their own table and RoleAdmin never
// appears on a User record.
type Role = string

const (
	// RoleAdmin is the administrator role.
	RoleAdmin Role = "admin"
	// RoleStudent authenticates with admission number + PIN.
	RoleStudent Role = "student"
	// RoleParent authenticates with email + password on behalf of a student.
	RoleParent Role = "parent"
	// RoleTeacher authenticates with email + password.
	RoleTeacher Role = "teacher"
)

// IsValidUserRole reports whether r may appear on a User record.
func IsValidUserRole(r Role) bool {
	switch r {
	case RoleStudent, RoleParent, RoleTeacher:
		return true
	default:
		return false
	}
}

// IsValidRole reports whether r is any role known to the portal.
func IsValidRole(r Role) bool {
	return r == RoleAdmin || IsValidUserRole(r)
}

// ParseRole safely parses a string into a Role.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// UsesPinFactor reports whether accounts with this role must authenticate
// through the PIN path rather than the password path.
func UsesPinFactor(r Role) bool {
	return r == RoleStudent
}

// RoleSet is the data-driven input to the role gate: the set of roles a route
// accepts. An empty set means "any authenticated principal".
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from a role list, ignoring unknown values.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if IsValidRole(r) {
			set[r] = struct{}{}
		}
	}
	return set
}

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Empty reports whether the set accepts any authenticated principal.
func (s RoleSet) Empty() bool {
	return len(s) == 0
}

// Roles returns the member roles in unspecified order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}
