package auth

import (
	env "github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// EnvConfig is the environment-backed Config implementation. Every knob has a
// sensible default except the signing key, which must be provided.
type EnvConfig struct {
	SigningKey        string   `env:"AUTH_SIGNING_KEY"`
	SigningMethod     string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey        string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration   int      `env:"AUTH_TOKEN_EXPIRATION_HOURS" envDefault:"168"`
	TokenLookup       string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme        string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer            string   `env:"AUTH_ISSUER"`
	Audience          []string `env:"AUTH_AUDIENCE" envSeparator:","`
	SessionCookieName string   `env:"AUTH_SESSION_COOKIE" envDefault:"portal_session"`
	SessionTTLHours   int      `env:"AUTH_SESSION_TTL_HOURS" envDefault:"24"`
}

// LoadConfig reads configuration from the process environment.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse auth environment")
	}

	if cfg.SigningKey == "" {
		return nil, goerrors.New("AUTH_SIGNING_KEY is required", goerrors.CategoryOperation)
	}

	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string        { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string     { return c.SigningMethod }
func (c *EnvConfig) GetContextKey() string        { return c.ContextKey }
func (c *EnvConfig) GetTokenExpiration() int      { return c.TokenExpiration }
func (c *EnvConfig) GetTokenLookup() string       { return c.TokenLookup }
func (c *EnvConfig) GetAuthScheme() string        { return c.AuthScheme }
func (c *EnvConfig) GetIssuer() string            { return c.Issuer }
func (c *EnvConfig) GetAudience() []string        { return c.Audience }
func (c *EnvConfig) GetSessionCookieName() string { return c.SessionCookieName }
func (c *EnvConfig) GetSessionTTLHours() int      { return c.SessionTTLHours }
