package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/campuskit/go-campus-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveToken(t *testing.T) {
	ctx := context.Background()
	tokens := newTestTokenService()

	t.Run("resolves an admin subject", func(t *testing.T) {
		source := new(MockPrincipalSource)
		adminID := uuid.New()
		admin := &auth.Admin{ID: adminID, Name: "Portal Admin", Email: "admin@school.example"}

		token, err := tokens.Issue(adminID.String(), auth.RoleAdmin)
		require.NoError(t, err)

		source.On("FindAdminByID", mock.Anything, adminID.String()).Return(admin, nil).Once()

		resolver := auth.NewResolver(source, tokens, nil)
		principal, err := resolver.ResolveToken(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, auth.PrincipalAdmin, principal.Kind())
		assert.Equal(t, adminID.String(), principal.ID())
		source.AssertExpectations(t)
	})

	t.Run("falls through to the user table", func(t *testing.T) {
		source := new(MockPrincipalSource)
		userID := uuid.New()
		user := &auth.User{ID: userID, Role: auth.RoleTeacher, IsActive: true}

		token, err := tokens.Issue(userID.String(), auth.RoleTeacher)
		require.NoError(t, err)

		source.On("FindAdminByID", mock.Anything, userID.String()).Return(nil, nil).Once()
		source.On("FindUserByID", mock.Anything, userID.String()).Return(user, nil).Once()

		resolver := auth.NewResolver(source, tokens, nil)
		principal, err := resolver.ResolveToken(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, auth.PrincipalUser, principal.Kind())
		assert.Equal(t, auth.RoleTeacher, principal.Role())
		source.AssertExpectations(t)
	})

	t.Run("admin wins an id collision", func(t *testing.T) {
		source := new(MockPrincipalSource)
		sharedID := uuid.New()
		admin := &auth.Admin{ID: sharedID, Email: "admin@school.example"}

		token, err := tokens.Issue(sharedID.String(), auth.RoleAdmin)
		require.NoError(t, err)

		source.On("FindAdminByID", mock.Anything, sharedID.String()).Return(admin, nil).Once()

		resolver := auth.NewResolver(source, tokens, nil)
		principal, err := resolver.ResolveToken(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, auth.PrincipalAdmin, principal.Kind())
		source.AssertNotCalled(t, "FindUserByID", mock.Anything, mock.Anything)
	})

	t.Run("subject without a backing record", func(t *testing.T) {
		source := new(MockPrincipalSource)
		ghostID := uuid.New()

		token, err := tokens.Issue(ghostID.String(), auth.RoleTeacher)
		require.NoError(t, err)

		source.On("FindAdminByID", mock.Anything, ghostID.String()).Return(nil, nil).Once()
		source.On("FindUserByID", mock.Anything, ghostID.String()).Return(nil, nil).Once()

		resolver := auth.NewResolver(source, tokens, nil)
		_, err = resolver.ResolveToken(ctx, token)

		assert.ErrorIs(t, err, auth.ErrPrincipalNotFound)
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		source := new(MockPrincipalSource)
		userID := uuid.New()
		user := &auth.User{ID: userID, Role: auth.RoleParent, IsActive: false}

		token, err := tokens.Issue(userID.String(), auth.RoleParent)
		require.NoError(t, err)

		source.On("FindAdminByID", mock.Anything, userID.String()).Return(nil, nil).Once()
		source.On("FindUserByID", mock.Anything, userID.String()).Return(user, nil).Once()

		resolver := auth.NewResolver(source, tokens, nil)
		_, err = resolver.ResolveToken(ctx, token)

		assert.True(t, auth.IsAccountDeactivated(err))
	})

	t.Run("expired token never reaches the store", func(t *testing.T) {
		source := new(MockPrincipalSource)

		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   uuid.NewString(),
				Audience:  jwt.ClaimStrings{"test:audience"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := tokens.SignClaims(claims)
		require.NoError(t, err)

		resolver := auth.NewResolver(source, tokens, nil)
		_, err = resolver.ResolveToken(ctx, token)

		assert.True(t, auth.IsTokenExpiredError(err))
		source.AssertNotCalled(t, "FindAdminByID", mock.Anything, mock.Anything)
	})
}

func TestResolveSession(t *testing.T) {
	ctx := context.Background()
	tokens := newTestTokenService()

	t.Run("returns the snapshot principal", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("Get", mock.Anything, "sess-1").Return(studentSnapshot(), nil).Once()

		resolver := auth.NewResolver(new(MockPrincipalSource), tokens, sessions)
		principal, err := resolver.ResolveSession(ctx, "sess-1")

		require.NoError(t, err)
		assert.Equal(t, auth.RoleStudent, principal.Role())
		sessions.AssertExpectations(t)
	})

	t.Run("unknown session", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("Get", mock.Anything, "sess-x").
			Return(auth.PrincipalSnapshot{}, auth.ErrSessionNotFound).Once()

		resolver := auth.NewResolver(new(MockPrincipalSource), tokens, sessions)
		_, err := resolver.ResolveSession(ctx, "sess-x")

		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	})

	t.Run("no session store configured", func(t *testing.T) {
		resolver := auth.NewResolver(new(MockPrincipalSource), tokens, nil)

		_, err := resolver.ResolveSession(ctx, "sess-1")
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	})
}

func TestResolvePriority(t *testing.T) {
	ctx := context.Background()
	tokens := newTestTokenService()

	source := new(MockPrincipalSource)
	sessions := new(MockSessionStore)

	userID := uuid.New()
	user := &auth.User{ID: userID, Role: auth.RoleTeacher, IsActive: true}

	token, err := tokens.Issue(userID.String(), auth.RoleTeacher)
	require.NoError(t, err)

	source.On("FindAdminByID", mock.Anything, userID.String()).Return(nil, nil).Once()
	source.On("FindUserByID", mock.Anything, userID.String()).Return(user, nil).Once()

	resolver := auth.NewResolver(source, tokens, sessions)

	// both credentials presented: the token path wins, the session is ignored
	principal, err := resolver.Resolve(ctx, auth.RequestCredential{
		BearerToken: token,
		SessionID:   "sess-1",
	})

	require.NoError(t, err)
	assert.Equal(t, userID.String(), principal.ID())
	sessions.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestResolveMissingCredentials(t *testing.T) {
	resolver := auth.NewResolver(new(MockPrincipalSource), newTestTokenService(), nil)

	_, err := resolver.Resolve(context.Background(), auth.RequestCredential{})
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)
}

func TestResolveOptional(t *testing.T) {
	ctx := context.Background()
	tokens := newTestTokenService()

	t.Run("no credential resolves to anonymous", func(t *testing.T) {
		resolver := auth.NewResolver(new(MockPrincipalSource), tokens, nil)

		principal, err := resolver.ResolveOptional(ctx, auth.RequestCredential{})
		require.NoError(t, err)
		assert.Equal(t, auth.PrincipalAnonymous, principal.Kind())
	})

	t.Run("a presented credential must still resolve", func(t *testing.T) {
		resolver := auth.NewResolver(new(MockPrincipalSource), tokens, nil)

		_, err := resolver.ResolveOptional(ctx, auth.RequestCredential{BearerToken: "garbage"})
		assert.Error(t, err)
	})
}

func TestRequestCredentialPresented(t *testing.T) {
	assert.False(t, auth.RequestCredential{}.Presented())
	assert.True(t, auth.RequestCredential{BearerToken: "tok"}.Presented())
	assert.True(t, auth.RequestCredential{SessionID: "sess"}.Presented())
}
