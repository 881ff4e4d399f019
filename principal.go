package auth

import (
	"github.com/google/uuid"
)

// PrincipalKind tags the concrete variant behind a Principal.
type PrincipalKind string

const (
	// PrincipalAdmin denotes an administrator account.
	PrincipalAdmin PrincipalKind = "admin"
	// PrincipalUser denotes a student, parent, or teacher account.
	PrincipalUser PrincipalKind = "user"
	// PrincipalAnonymous denotes the absence of a credential on routes that
	// allow public access.
	PrincipalAnonymous PrincipalKind = "anonymous"
)

// Principal is an authenticated identity. Exactly one concrete variant backs
// every authenticated request; it is resolved once, at the boundary, and is
// immutable afterwards.
type Principal interface {
	ID() string
	Name() string
	Email() string
	Role() Role
	Kind() PrincipalKind
	// Active reports whether the account may currently act. Administrators
	// and the anonymous principal are always active; users carry a flag.
	Active() bool
}

// StudentScoped is implemented by principals that act on behalf of a student
// record (students themselves and parents).
type StudentScoped interface {
	StudentRef() (uuid.UUID, bool)
}

type adminPrincipal struct {
	id    string
	name  string
	email string
}

func (a adminPrincipal) ID() string          { return a.id }
func (a adminPrincipal) Name() string        { return a.name }
func (a adminPrincipal) Email() string       { return a.email }
func (a adminPrincipal) Role() Role          { return RoleAdmin }
func (a adminPrincipal) Kind() PrincipalKind { return PrincipalAdmin }
func (a adminPrincipal) Active() bool        { return true }

type userPrincipal struct {
	id        string
	name      string
	email     string
	role      Role
	studentID *uuid.UUID
	active    bool
}

func (u userPrincipal) ID() string          { return u.id }
func (u userPrincipal) Name() string        { return u.name }
func (u userPrincipal) Email() string       { return u.email }
func (u userPrincipal) Role() Role          { return u.role }
func (u userPrincipal) Kind() PrincipalKind { return PrincipalUser }
func (u userPrincipal) Active() bool        { return u.active }

func (u userPrincipal) StudentRef() (uuid.UUID, bool) {
	if u.studentID == nil {
		return uuid.Nil, false
	}
	return *u.studentID, true
}

type anonymousPrincipal struct{}

func (anonymousPrincipal) ID() string          { return "" }
func (anonymousPrincipal) Name() string        { return "" }
func (anonymousPrincipal) Email() string       { return "" }
func (anonymousPrincipal) Role() Role          { return "" }
func (anonymousPrincipal) Kind() PrincipalKind { return PrincipalAnonymous }
func (anonymousPrincipal) Active() bool        { return true }

var (
	_ Principal     = adminPrincipal{}
	_ Principal     = userPrincipal{}
	_ StudentScoped = userPrincipal{}
	_ Principal     = anonymousPrincipal{}
)

// PrincipalFromAdmin builds the admin variant from its backing record.
func PrincipalFromAdmin(admin *Admin) Principal {
	return adminPrincipal{
		id:    admin.ID.String(),
		name:  admin.Name,
		email: admin.Email,
	}
}

// PrincipalFromUser builds the user variant from its backing record.
func PrincipalFromUser(user *User) Principal {
	return userPrincipal{
		id:        user.ID.String(),
		name:      user.Name,
		email:     user.Email,
		role:      user.Role,
		studentID: user.StudentID,
		active:    user.IsActive,
	}
}

// Anonymous is the principal attached to public requests that presented no
// credential at all.
func Anonymous() Principal {
	return anonymousPrincipal{}
}

// PrincipalSnapshot is the serializable state a session stores. It is a copy
// taken at login time: later mutations to the backing record (deactivation,
// renames) are not reflected until the session is re-established.
type PrincipalSnapshot struct {
	ID        string        `json:"id"`
	Kind      PrincipalKind `json:"kind"`
	Name      string        `json:"name,omitempty"`
	Email     string        `json:"email,omitempty"`
	Role      Role          `json:"role,omitempty"`
	StudentID string        `json:"student_id,omitempty"`
	IsActive  bool          `json:"is_active"`
	// Token optionally embeds a bearer token so browser sessions can make
	// API calls on the user's behalf without a second login.
	Token string `json:"token,omitempty"`
}

// SnapshotPrincipal captures p into a storable snapshot. The token is
// optional; pass "" for cookie-only sessions.
func SnapshotPrincipal(p Principal, token string) PrincipalSnapshot {
	snap := PrincipalSnapshot{
		ID:       p.ID(),
		Kind:     p.Kind(),
		Name:     p.Name(),
		Email:    p.Email(),
		Role:     p.Role(),
		IsActive: p.Active(),
		Token:    token,
	}

	if scoped, ok := p.(StudentScoped); ok {
		if id, has := scoped.StudentRef(); has {
			snap.StudentID = id.String()
		}
	}

	return snap
}

// Principal rebuilds the principal variant the snapshot was taken from.
func (s PrincipalSnapshot) Principal() (Principal, error) {
	switch s.Kind {
	case PrincipalAdmin:
		return adminPrincipal{id: s.ID, name: s.Name, email: s.Email}, nil
	case PrincipalUser:
		p := userPrincipal{
			id:     s.ID,
			name:   s.Name,
			email:  s.Email,
			role:   s.Role,
			active: s.IsActive,
		}
		if s.StudentID != "" {
			if id, err := uuid.Parse(s.StudentID); err == nil {
				p.studentID = &id
			}
		}
		return p, nil
	case PrincipalAnonymous:
		return anonymousPrincipal{}, nil
	default:
		return nil, ErrSessionNotFound
	}
}
