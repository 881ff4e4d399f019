package auth

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface this package needs. The core never
// logs secrets and never renders errors; presentation belongs to callers.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetSessionCookieName() string
	GetSessionTTLHours() int
}

// LoginOrchestrator drives the login state machine: it accepts one tagged
// credential, picks the matching verification branch, and on success mints a
// token and/or establishes a session.
type LoginOrchestrator interface {
	LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error)
	LoginUser(ctx context.Context, cred Credential) (*LoginResult, error)
	EstablishSession(ctx context.Context, principal Principal, token string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}

// PrincipalResolver is the resolution surface HTTP middleware builds on.
type PrincipalResolver interface {
	Resolve(ctx context.Context, cred RequestCredential) (Principal, error)
	ResolveOptional(ctx context.Context, cred RequestCredential) (Principal, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
