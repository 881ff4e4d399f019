package auth_test

import (
	"context"
	"testing"

	auth "github.com/campuskit/go-campus-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountServiceActivateDeactivate(t *testing.T) {
	repos := setupRepoManager(t)
	sink := &capturingSink{}
	service := auth.NewAccountService(repos).WithActivitySink(sink)
	ctx := context.Background()

	user := seedUser(t, repos, "teacher@school.example", auth.RoleTeacher)

	got, err := service.Deactivate(ctx, adminActor, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Contains(t, sink.eventTypes(), auth.ActivityEventUserDeactivated)

	got, err = service.Activate(ctx, adminActor, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Contains(t, sink.eventTypes(), auth.ActivityEventUserActivated)
}

func TestAccountServiceChangePassword(t *testing.T) {
	repos := setupRepoManager(t)
	sink := &capturingSink{}
	service := auth.NewAccountService(repos).WithActivitySink(sink)
	ctx := context.Background()

	user := seedUser(t, repos, "parent@school.example", auth.RoleParent)
	principal := auth.PrincipalFromUser(user)

	t.Run("requires the current password", func(t *testing.T) {
		err := service.ChangePassword(ctx, principal, "not-it", "fresh-password")
		assert.True(t, auth.IsInvalidCredentials(err))
	})

	t.Run("rejects short passwords before touching the store", func(t *testing.T) {
		err := service.ChangePassword(ctx, principal, "user-password", "tiny")
		assert.Error(t, err)
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		err := service.ChangePassword(ctx, auth.Anonymous(), "user-password", "fresh-password")
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	})

	t.Run("successful rotation", func(t *testing.T) {
		require.NoError(t, service.ChangePassword(ctx, principal, "user-password", "fresh-password"))

		got, err := repos.Users().GetByEmail(ctx, "parent@school.example")
		require.NoError(t, err)
		assert.NoError(t, auth.CompareSecretAndHash("fresh-password", got.PasswordHash))
		assert.Error(t, auth.CompareSecretAndHash("user-password", got.PasswordHash))
		assert.Contains(t, sink.eventTypes(), auth.ActivityEventPasswordChanged)
	})
}

func TestAccountServiceAdminResetPassword(t *testing.T) {
	repos := setupRepoManager(t)
	service := auth.NewAccountService(repos)
	ctx := context.Background()

	user := seedUser(t, repos, "teacher@school.example", auth.RoleTeacher)

	// no current password needed on the admin path
	require.NoError(t, service.AdminResetPassword(ctx, adminActor, user.ID, "issued-password"))

	got, err := repos.Users().GetByEmail(ctx, "teacher@school.example")
	require.NoError(t, err)
	assert.NoError(t, auth.CompareSecretAndHash("issued-password", got.PasswordHash))

	assert.Error(t, service.AdminResetPassword(ctx, adminActor, user.ID, "tiny"))
}
