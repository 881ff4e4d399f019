package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Credential is the tagged union of login proofs. Exactly one concrete shape
// is presented per attempt; the orchestrator dispatches on the tag.
type Credential interface {
	credentialTag() string
}

// PasswordCredential is the email/password proof used by admins, parents,
// and teachers.
type PasswordCredential struct {
	Email    string
	Password string
}

func (PasswordCredential) credentialTag() string { return "password" }

// PINCredential is the admission-number/PIN proof used by students.
type PINCredential struct {
	AdmissionNumber string
	PIN             string
}

func (PINCredential) credentialTag() string { return "pin" }

// CredentialFromFields builds a Credential from the combined legacy login
// payload, which carries both credential shapes in one body. The password
// pair wins when both are present; an empty payload is a missing credential.
func CredentialFromFields(email, password, admissionNumber, pin string) (Credential, error) {
	if email != "" && password != "" {
		return PasswordCredential{Email: email, Password: password}, nil
	}
	if admissionNumber != "" && pin != "" {
		return PINCredential{AdmissionNumber: admissionNumber, PIN: pin}, nil
	}
	return nil, ErrMissingCredentials
}

// LoginResult is what a successful login yields: the authenticated principal
// and a freshly minted bearer token.
type LoginResult struct {
	Principal Principal
	Token     string
	ExpiresIn string
	ExpiresAt time.Time
}

// Auther orchestrates logins. It owns no verification logic itself: each
// credential shape is delegated to its provider, and success is converted
// into a token, a session, or both.
type Auther struct {
	admins          *AdminProvider
	users           *UserProvider
	students        *StudentPinProvider
	tokenService    TokenService
	sessions        SessionStore
	tokenExpiration int
	expiresIn       string
	logger          Logger
	activitySink    ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(admins AdminDirectory, users UserDirectory, students StudentDirectory, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	tokenExpiration := opts.GetTokenExpiration()
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpirationHours
	}

	return &Auther{
		admins:          NewAdminProvider(admins),
		users:           NewUserProvider(users),
		students:        NewStudentPinProvider(students, users),
		tokenService:    tokenService,
		tokenExpiration: tokenExpiration,
		expiresIn:       expiresInLabel(tokenExpiration),
		logger:          defLogger{},
		activitySink:    noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.admins.WithLogger(logger)
	s.users.WithLogger(logger)
	s.students.WithLogger(logger)
	return s
}

// WithSessionStore enables EstablishSession and Logout. Without a store the
// orchestrator issues tokens only.
func (s *Auther) WithSessionStore(store SessionStore) *Auther {
	s.sessions = store
	return s
}

// WithTokenService replaces the token service built from Config.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	if service != nil {
		s.tokenService = service
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// LoginAdmin authenticates against the admin table only. Admin identities
// never mix with portal users even when an email exists in both tables.
func (s *Auther) LoginAdmin(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.admins.VerifyPassword(ctx, email, password)
	if err != nil {
		s.logger.Error("LoginAdmin verify error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": email,
			"credential": "password",
			"realm":      "admin",
			"error":      err.Error(),
		})
		return nil, err
	}

	result, err := s.finishLogin(ctx, PrincipalFromAdmin(admin))
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromPrincipal(result.Principal), result.Principal.ID(), map[string]any{
		"identifier": email,
		"credential": "password",
		"realm":      "admin",
	})

	return result, nil
}

// LoginUser authenticates a portal user with whichever credential shape was
// presented. Both verification branches collapse unknown identifiers and
// wrong secrets into the same failure.
func (s *Auther) LoginUser(ctx context.Context, cred Credential) (*LoginResult, error) {
	var user *User
	var err error
	var identifier string

	switch c := cred.(type) {
	case PasswordCredential:
		identifier = c.Email
		user, err = s.users.VerifyPassword(ctx, c.Email, c.Password)
	case PINCredential:
		identifier = c.AdmissionNumber
		user, err = s.students.VerifyPin(ctx, c.AdmissionNumber, c.PIN)
	case nil:
		return nil, ErrMissingCredentials
	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported credential shape: %s", c.credentialTag()), goerrors.CategoryBadInput).
			WithTextCode(textCodeInvalidFormat)
	}

	if err != nil {
		s.logger.Error("LoginUser verify error", "credential", cred.credentialTag(), "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"credential": cred.credentialTag(),
			"error":      err.Error(),
		})
		return nil, err
	}

	result, err := s.finishLogin(ctx, PrincipalFromUser(user))
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromPrincipal(result.Principal), result.Principal.ID(), map[string]any{
		"identifier": identifier,
		"credential": cred.credentialTag(),
	})

	return result, nil
}

// EstablishSession persists a server-side session for the principal and
// returns the opaque session id to be set as a cookie. The bearer token, if
// any, travels inside the stored snapshot so session callers can reuse it.
func (s *Auther) EstablishSession(ctx context.Context, principal Principal, token string) (string, error) {
	if principal == nil || principal.Kind() == PrincipalAnonymous {
		return "", goerrors.New("an authenticated principal is required", goerrors.CategoryBadInput)
	}

	if s.sessions == nil {
		return "", goerrors.New("session store is not configured", goerrors.CategoryInternal)
	}

	sessionID, err := s.sessions.Create(ctx, SnapshotPrincipal(principal, token))
	if err != nil {
		s.logger.Error("EstablishSession create failed", "error", err)
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventSessionCreated, s.actorFromPrincipal(principal), principal.ID(), nil)

	return sessionID, nil
}

// Logout destroys the session. Destroying an unknown or already expired
// session is not an error.
func (s *Auther) Logout(ctx context.Context, sessionID string) error {
	if s.sessions == nil || sessionID == "" {
		return nil
	}

	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		s.logger.Error("Logout destroy failed", "error", err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{Type: "session"}, "", map[string]any{
		"session": sessionID,
	})

	return nil
}

func (s *Auther) finishLogin(ctx context.Context, principal Principal) (*LoginResult, error) {
	token, err := s.tokenService.Issue(principal.ID(), principal.Role())
	if err != nil {
		s.logger.Error("login token issuance failed", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromPrincipal(principal), principal.ID(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	return &LoginResult{
		Principal: principal,
		Token:     token,
		ExpiresIn: s.expiresIn,
		ExpiresAt: time.Now().Add(time.Duration(s.tokenExpiration) * time.Hour),
	}, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, subjectID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		SubjectID: subjectID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromPrincipal(principal Principal) ActorRef {
	if principal == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   principal.ID(),
		Type: string(principal.Kind()),
	}
}

// expiresInLabel renders the token lifetime the way clients expect it,
// e.g. "7 days" for the default expiration.
func expiresInLabel(hours int) string {
	if hours%24 == 0 {
		days := hours / 24
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
