package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSessionTTL is the absolute session lifetime: 24 hours from
	// creation, never extended by activity.
	DefaultSessionTTL = 24 * time.Hour

	// defaultStoreTimeout bounds every store round trip so an unreachable
	// store surfaces ErrStoreUnavailable instead of hanging the request.
	defaultStoreTimeout = 3 * time.Second

	sessionKeyPrefix = "session:"
	sessionIDBytes   = 32
)

// SessionStore persists server-side sessions keyed by an opaque id delivered
// via cookie. The TTL is enforced by the store itself; callers never
// recompute it.
type SessionStore interface {
	Create(ctx context.Context, snapshot PrincipalSnapshot) (string, error)
	Get(ctx context.Context, sessionID string) (PrincipalSnapshot, error)
	// Update rewrites the payload of a live session without touching its
	// absolute expiry. Updating a missing or expired session is reported as
	// ErrSessionNotFound.
	Update(ctx context.Context, sessionID string, snapshot PrincipalSnapshot) error
	Destroy(ctx context.Context, sessionID string) error
}

// GenerateSessionID generates a cryptographically secure opaque session id
// with 256 bits of entropy.
func GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session id")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RedisSessionStore is the durable SessionStore used in production: sessions
// survive process restarts and are shared across instances.
type RedisSessionStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  Logger
}

// RedisSessionStoreOption customizes the store.
type RedisSessionStoreOption func(*RedisSessionStore)

// WithSessionTTL overrides the absolute session lifetime.
func WithSessionTTL(ttl time.Duration) RedisSessionStoreOption {
	return func(s *RedisSessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionKeyPrefix overrides the redis key prefix.
func WithSessionKeyPrefix(prefix string) RedisSessionStoreOption {
	return func(s *RedisSessionStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithStoreTimeout overrides the per-operation deadline.
func WithStoreTimeout(timeout time.Duration) RedisSessionStoreOption {
	return func(s *RedisSessionStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithSessionStoreLogger overrides the fallback logger.
func WithSessionStoreLogger(logger Logger) RedisSessionStoreOption {
	return func(s *RedisSessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedisSessionStore creates a redis-backed session store.
func NewRedisSessionStore(client *redis.Client, opts ...RedisSessionStoreOption) *RedisSessionStore {
	store := &RedisSessionStore{
		client:  client,
		prefix:  sessionKeyPrefix,
		ttl:     DefaultSessionTTL,
		timeout: defaultStoreTimeout,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

var _ SessionStore = (*RedisSessionStore)(nil)

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisSessionStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Create stores the snapshot under a fresh opaque id with the absolute TTL.
func (s *RedisSessionStore) Create(ctx context.Context, snapshot PrincipalSnapshot) (string, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode session payload")
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return "", s.unavailable("create", err)
	}

	return sessionID, nil
}

// Get loads the snapshot for a session id. Missing and expired sessions are
// indistinguishable to redis (expiry deletes the key) and both map to
// ErrSessionNotFound; transport failures map to ErrStoreUnavailable.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (PrincipalSnapshot, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return PrincipalSnapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return PrincipalSnapshot{}, s.unavailable("get", err)
	}

	var snapshot PrincipalSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		s.logger.Error("session payload corrupted", "session", sessionID, "error", err)
		return PrincipalSnapshot{}, ErrSessionNotFound
	}

	return snapshot, nil
}

// Update rewrites the payload while keeping the original absolute expiry.
func (s *RedisSessionStore) Update(ctx context.Context, sessionID string, snapshot PrincipalSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode session payload")
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	ok, err := s.client.SetXX(ctx, s.key(sessionID), data, redis.KeepTTL).Result()
	if err != nil {
		return s.unavailable("update", err)
	}
	if !ok {
		return ErrSessionNotFound
	}

	return nil
}

// Destroy removes the session. Destroying an unknown id is not an error.
func (s *RedisSessionStore) Destroy(ctx context.Context, sessionID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return s.unavailable("destroy", err)
	}
	return nil
}

func (s *RedisSessionStore) unavailable(op string, err error) error {
	s.logger.Error("session store operation failed", "op", op, "error", err)
	return goerrors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
		WithTextCode(ErrStoreUnavailable.TextCode)
}
