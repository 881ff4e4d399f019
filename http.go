package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/campuskit/go-campus-auth/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator is the HTTP-facing surface: it wires the login
// orchestrator, the principal resolver, and the role gates into go-router
// middleware and cookie plumbing.
type RouteAuthenticator struct {
	auth             LoginOrchestrator
	resolver         PrincipalResolver
	cfg              Config
	sessionDuration  time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther LoginOrchestrator, resolver PrincipalResolver, cfg Config) (*RouteAuthenticator, error) {
	sessionDuration := DefaultSessionTTL
	if cfg.GetSessionTTLHours() > 0 {
		sessionDuration = time.Duration(cfg.GetSessionTTLHours()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:             cfg,
		auth:            auther,
		resolver:        resolver,
		Logger:          defLogger{},
		sessionDuration: sessionDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetSessionDuration() time.Duration {
	return a.sessionDuration
}

// ProtectedRoute guards a route with bearer-token auth only. The role set is
// data driven: empty admits any authenticated principal.
func (a *RouteAuthenticator) ProtectedRoute(roles RoleSet, validator TokenValidator, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	cfg := a.cfg
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: wrapTokenValidator(validator),
			RequiredRoles:  roles.Roles(),
			ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
				if ac, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(c, ac)
				}
				return c
			},
		})(hf)
	}
}

// Protect resolves the full credential surface (bearer token first, session
// cookie second) and applies the role gate. Handlers downstream read the
// principal with PrincipalFromContext.
func (a *RouteAuthenticator) Protect(roles RoleSet) router.MiddlewareFunc {
	gate := NewRoleGate(roles)
	return a.protect(gate, false)
}

// PublicOrProtected lets requests with no credential through as anonymous,
// but a presented credential must still resolve and pass the gate.
func (a *RouteAuthenticator) PublicOrProtected(roles RoleSet) router.MiddlewareFunc {
	gate := NewOptionalRoleGate(roles)
	return a.protect(gate, true)
}

func (a *RouteAuthenticator) protect(gate *RoleGate, optional bool) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			cred := a.credentialFromRequest(ctx)

			var principal Principal
			var err error
			if optional {
				principal, err = a.resolver.ResolveOptional(ctx.Context(), cred)
			} else {
				principal, err = a.resolver.Resolve(ctx.Context(), cred)
			}

			if err != nil {
				return a.AuthErrorHandler(ctx, err)
			}

			if err := gate.Authorize(principal); err != nil {
				return a.AuthErrorHandler(ctx, err)
			}

			ctx.Locals(a.cfg.GetContextKey(), principal)
			ctx.SetContext(WithPrincipal(ctx.Context(), principal))

			return ctx.Next()
		}
	}
}

// credentialFromRequest collects whatever the request presented. The bearer
// token wins over the session cookie when both are present.
func (a *RouteAuthenticator) credentialFromRequest(ctx router.Context) RequestCredential {
	cred := RequestCredential{
		SessionID: ctx.Cookies(a.cfg.GetSessionCookieName()),
	}

	scheme := a.cfg.GetAuthScheme()
	if scheme == "" {
		scheme = "Bearer"
	}

	header := ctx.GetString(router.HeaderAuthorization, "")
	if len(header) > len(scheme)+1 && strings.EqualFold(header[:len(scheme)], scheme) {
		cred.BearerToken = strings.TrimSpace(header[len(scheme):])
	}

	return cred
}

// Login runs the credential through the orchestrator and, on success,
// establishes a server-side session backing the cookie.
func (a *RouteAuthenticator) Login(ctx router.Context, cred Credential) (*LoginResult, error) {
	result, err := a.auth.LoginUser(ctx.Context(), cred)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return nil, err
	}

	if err := a.establishSessionCookie(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// LoginAdmin is the admin-realm variant of Login.
func (a *RouteAuthenticator) LoginAdmin(ctx router.Context, email, password string) (*LoginResult, error) {
	result, err := a.auth.LoginAdmin(ctx.Context(), email, password)
	if err != nil {
		a.Logger.Error("LoginAdmin error: %s", err)
		return nil, err
	}

	if err := a.establishSessionCookie(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Logout destroys the server-side session and expires the cookie.
func (a *RouteAuthenticator) Logout(ctx router.Context) error {
	cookieName := a.cfg.GetSessionCookieName()
	sessionID := ctx.Cookies(cookieName)

	if err := a.auth.Logout(ctx.Context(), sessionID); err != nil {
		a.Logger.Error("Logout error", "error", err)
		return err
	}

	a.cookieDel(ctx, cookieName)
	return nil
}

func (a *RouteAuthenticator) establishSessionCookie(ctx router.Context, result *LoginResult) error {
	sessionID, err := a.auth.EstablishSession(ctx.Context(), result.Principal, result.Token)
	if err != nil {
		a.Logger.Error("failed to establish session", "error", err)
		return err
	}

	a.setSessionCookie(ctx, sessionID, a.sessionDuration)
	return nil
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) setSessionCookie(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetSessionCookieName(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	code := richErr.Code
	if code == 0 {
		code = http.StatusUnauthorized
	}

	return c.JSON(code, map[string]any{
		"status":    "fail",
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		code := richErr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return c.JSON(code, map[string]any{
			"status":  "error",
			"message": richErr.Message,
		})
	}
}

// wrapTokenValidator bridges this package's TokenValidator to the jwtware
// middleware without an import cycle.
func wrapTokenValidator(v TokenValidator) jwtware.TokenValidator {
	return jwtValidator{v: v}
}

type jwtValidator struct {
	v TokenValidator
}

func (j jwtValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := j.v.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
