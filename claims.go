package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the validated content of a bearer token.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	IssuedAt() time.Time
	Expires() time.Time
}

// JWTClaims is the concrete claim set carried by issued tokens:
// {sub, uid, role, iat, exp} plus the registered envelope.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim.
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the principal id the token was minted for.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the role claim. Admin tokens carry RoleAdmin; user tokens
// carry the user's role at issuance time.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// IssuedAt returns the issuance time.
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Expires returns the expiration instant.
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
