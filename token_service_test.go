package auth_test

import (
	"testing"
	"time"

	auth "github.com/campuskit/go-campus-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() auth.TokenService {
	return auth.NewTokenService(
		[]byte("test-signing-key"),
		auth.DefaultTokenExpirationHours,
		"test-issuer",
		jwt.ClaimStrings{"test:audience"},
		nil,
	)
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	service := newTestTokenService()

	token, err := service.Issue("user-123", auth.RoleTeacher)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, auth.RoleTeacher, claims.Role())

	lifetime := claims.Expires().Sub(claims.IssuedAt())
	assert.Equal(t, time.Duration(auth.DefaultTokenExpirationHours)*time.Hour, lifetime)
}

func TestTokenServiceExpiredToken(t *testing.T) {
	service := newTestTokenService()

	now := time.Now()
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "user-123",
			Audience:  jwt.ClaimStrings{"test:audience"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID:      "user-123",
		UserRole: string(auth.RoleTeacher),
	}

	token, err := service.SignClaims(claims)
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)

	// a valid signature past its expiry is expired, never malformed
	assert.True(t, auth.IsTokenExpiredError(err))
	assert.False(t, auth.IsMalformedError(err))
}

func TestTokenServiceBadSignature(t *testing.T) {
	service := newTestTokenService()

	other := auth.NewTokenService(
		[]byte("a-different-key"),
		auth.DefaultTokenExpirationHours,
		"test-issuer",
		jwt.ClaimStrings{"test:audience"},
		nil,
	)

	token, err := other.Issue("user-123", auth.RoleTeacher)
	require.NoError(t, err)

	_, err = service.Validate(token)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
	assert.False(t, auth.IsTokenExpiredError(err))
}

func TestTokenServiceGarbageToken(t *testing.T) {
	service := newTestTokenService()

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := service.Validate(raw)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	}
}

func TestTokenServiceIssuerMismatch(t *testing.T) {
	service := newTestTokenService()

	other := auth.NewTokenService(
		[]byte("test-signing-key"),
		auth.DefaultTokenExpirationHours,
		"another-issuer",
		jwt.ClaimStrings{"test:audience"},
		nil,
	)

	token, err := other.Issue("user-123", auth.RoleTeacher)
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceDefaultsExpiration(t *testing.T) {
	service := auth.NewTokenService([]byte("key"), 0, "", nil, nil)

	token, err := service.Issue("user-123", auth.RoleStudent)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	lifetime := claims.Expires().Sub(claims.IssuedAt())
	assert.Equal(t, time.Duration(auth.DefaultTokenExpirationHours)*time.Hour, lifetime)
}
