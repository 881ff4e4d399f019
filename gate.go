package auth

// RoleGate authorizes resolved principals against a route's required role
// set. It is pure data-driven logic, testable without any route wiring.
type RoleGate struct {
	required RoleSet
	// optional marks the public-or-protected variant: anonymous principals
	// pass, but authenticated ones are still held to the required set.
	optional bool
}

// NewRoleGate builds a gate for the given role set. An empty set admits any
// authenticated principal (used for combined admin-or-user routes).
func NewRoleGate(required RoleSet) *RoleGate {
	return &RoleGate{required: required}
}

// NewOptionalRoleGate builds the public-or-protected variant.
func NewOptionalRoleGate(required RoleSet) *RoleGate {
	return &RoleGate{required: required, optional: true}
}

// RequiredRoles exposes the configured set, chiefly for route introspection.
func (g *RoleGate) RequiredRoles() RoleSet {
	return g.required
}

// Authorize allows or denies the principal. It returns nil to allow, or a
// typed denial: ErrMissingCredentials for anonymous principals on protected
// gates, ErrAccountDeactivated for inactive accounts (re-checked here even
// though resolution already rejects them), ErrRoleMismatch otherwise.
func (g *RoleGate) Authorize(principal Principal) error {
	if principal == nil {
		return ErrMissingCredentials
	}

	if principal.Kind() == PrincipalAnonymous {
		if g.optional {
			return nil
		}
		return ErrMissingCredentials
	}

	if !principal.Active() {
		return ErrAccountDeactivated
	}

	if g.required.Empty() {
		return nil
	}

	if !g.required.Contains(principal.Role()) {
		return ErrRoleMismatch.Clone().WithMetadata(map[string]any{
			"role":     principal.Role(),
			"required": g.required.Roles(),
		})
	}

	return nil
}

// Authorize is the package-level convenience for one-off checks.
func Authorize(principal Principal, required RoleSet) error {
	return NewRoleGate(required).Authorize(principal)
}
