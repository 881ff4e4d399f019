package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PrincipalSource loads backing records during resolution. Implementations
// must return (nil, nil) when no record matches so the resolver can continue
// its ordered sequence of attempts.
type PrincipalSource interface {
	FindAdminByID(ctx context.Context, id string) (*Admin, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// RequestCredential is what a request presented: a bearer token, a session
// cookie id, both, or neither. The token takes priority when both are set.
type RequestCredential struct {
	BearerToken string
	SessionID   string
}

// Presented reports whether any credential was presented at all.
func (c RequestCredential) Presented() bool {
	return c.BearerToken != "" || c.SessionID != ""
}

// Resolver turns a presented credential into a Principal. Resolution is an
// explicit, ordered state machine: token path before session path, admins
// before users, and every terminal state is either a Principal or a typed
// rejection. There is no silent fallback to anonymous.
type Resolver struct {
	source   PrincipalSource
	tokens   TokenValidator
	sessions SessionStore
	logger   Logger
	timeout  time.Duration
}

// ResolverOption customizes the resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger overrides the fallback logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverTimeout bounds each principal lookup.
func WithResolverTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewResolver builds a Resolver. sessions may be nil for token-only
// deployments; session resolution then always fails typed.
func NewResolver(source PrincipalSource, tokens TokenValidator, sessions SessionStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:   source,
		tokens:   tokens,
		sessions: sessions,
		logger:   defLogger{},
		timeout:  defaultStoreTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve runs the resolution state machine over the presented credential.
func (r *Resolver) Resolve(ctx context.Context, cred RequestCredential) (Principal, error) {
	switch {
	case cred.BearerToken != "":
		return r.ResolveToken(ctx, cred.BearerToken)
	case cred.SessionID != "":
		return r.ResolveSession(ctx, cred.SessionID)
	default:
		return nil, ErrMissingCredentials
	}
}

// ResolveOptional implements the public-or-protected variant: absent
// credentials resolve to the anonymous principal, but a credential that was
// presented must resolve successfully. Presenting a bad credential is an
// authentication attempt, not something to skip.
func (r *Resolver) ResolveOptional(ctx context.Context, cred RequestCredential) (Principal, error) {
	if !cred.Presented() {
		return Anonymous(), nil
	}
	return r.Resolve(ctx, cred)
}

// ResolveToken decodes a bearer token and loads its subject: the admin table
// is consulted first, then users, and the first hit wins. A subject id
// colliding across both tables therefore resolves as the admin.
func (r *Resolver) ResolveToken(ctx context.Context, raw string) (Principal, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		r.logger.Debug("token validation rejected", "error", err)
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	subject := claims.UserID()

	admin, err := r.source.FindAdminByID(lookupCtx, subject)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load admin during resolution")
	}
	if admin != nil {
		return PrincipalFromAdmin(admin), nil
	}

	user, err := r.source.FindUserByID(lookupCtx, subject)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user during resolution")
	}
	if user == nil {
		return nil, ErrPrincipalNotFound
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	return PrincipalFromUser(user), nil
}

// ResolveSession loads the principal snapshot for a session id. The snapshot
// is returned as captured at login: deactivation after login shows up on the
// next token resolution or session refresh, not here.
func (r *Resolver) ResolveSession(ctx context.Context, sessionID string) (Principal, error) {
	if r.sessions == nil {
		return nil, ErrSessionNotFound
	}

	snapshot, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	principal, err := snapshot.Principal()
	if err != nil {
		return nil, err
	}

	return principal, nil
}
