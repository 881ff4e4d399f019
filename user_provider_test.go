package auth_test

import (
	"context"
	"testing"

	auth "github.com/campuskit/go-campus-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := auth.HashSecret(secret)
	require.NoError(t, err)
	return hash
}

func TestAdminProviderVerifyPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		admins := new(MockAdminDirectory)
		admin := &auth.Admin{
			ID:           uuid.New(),
			Email:        "admin@school.example",
			PasswordHash: mustHash(t, "admin-password"),
		}
		admins.On("AdminByEmail", ctx, "admin@school.example").Return(admin, nil).Once()

		provider := auth.NewAdminProvider(admins)
		got, err := provider.VerifyPassword(ctx, "admin@school.example", "admin-password")

		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)
		admins.AssertExpectations(t)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		admins := new(MockAdminDirectory)
		admin := &auth.Admin{
			ID:           uuid.New(),
			Email:        "admin@school.example",
			PasswordHash: mustHash(t, "admin-password"),
		}
		admins.On("AdminByEmail", ctx, "admin@school.example").Return(admin, nil).Once()
		admins.On("AdminByEmail", ctx, "ghost@school.example").Return(nil, nil).Once()

		provider := auth.NewAdminProvider(admins)

		_, wrongPass := provider.VerifyPassword(ctx, "admin@school.example", "not-it")
		_, unknown := provider.VerifyPassword(ctx, "ghost@school.example", "whatever")

		assert.True(t, auth.IsInvalidCredentials(wrongPass))
		assert.True(t, auth.IsInvalidCredentials(unknown))
		assert.Equal(t, wrongPass.Error(), unknown.Error())
	})

	t.Run("missing credentials", func(t *testing.T) {
		provider := auth.NewAdminProvider(new(MockAdminDirectory))

		_, err := provider.VerifyPassword(ctx, "", "password")
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)

		_, err = provider.VerifyPassword(ctx, "admin@school.example", "")
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	})
}

func TestUserProviderVerifyPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials track the login", func(t *testing.T) {
		users := new(MockUserDirectory)
		user := &auth.User{
			ID:           uuid.New(),
			Role:         auth.RoleTeacher,
			Email:        "teacher@school.example",
			PasswordHash: mustHash(t, "teacher-password"),
			IsActive:     true,
		}
		users.On("UserByEmail", ctx, "teacher@school.example").Return(user, nil).Once()
		users.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		provider := auth.NewUserProvider(users)
		got, err := provider.VerifyPassword(ctx, "teacher@school.example", "teacher-password")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		users.AssertExpectations(t)
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		users := new(MockUserDirectory)
		user := &auth.User{
			ID:           uuid.New(),
			Role:         auth.RoleParent,
			PasswordHash: mustHash(t, "parent-password"),
			IsActive:     true,
		}
		users.On("UserByEmail", ctx, "parent@school.example").Return(user, nil).Once()
		users.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		provider := auth.NewUserProvider(users)
		_, err := provider.VerifyPassword(ctx, "parent@school.example", "not-it")

		assert.True(t, auth.IsInvalidCredentials(err))
		users.AssertExpectations(t)
	})

	t.Run("PIN factor accounts cannot use the password path", func(t *testing.T) {
		users := new(MockUserDirectory)
		student := &auth.User{
			ID:           uuid.New(),
			Role:         auth.RoleStudent,
			PasswordHash: mustHash(t, "482913"),
			IsActive:     true,
		}
		users.On("UserByEmail", ctx, "stu-2024-001@students.portal").Return(student, nil).Once()

		provider := auth.NewUserProvider(users)

		// even the correct placeholder secret is rejected, and the failure
		// does not confirm the account exists
		_, err := provider.VerifyPassword(ctx, "stu-2024-001@students.portal", "482913")

		assert.True(t, auth.IsInvalidCredentials(err))
		users.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
	})

	t.Run("deactivated account", func(t *testing.T) {
		users := new(MockUserDirectory)
		user := &auth.User{
			ID:           uuid.New(),
			Role:         auth.RoleTeacher,
			PasswordHash: mustHash(t, "teacher-password"),
			IsActive:     false,
		}
		users.On("UserByEmail", ctx, "teacher@school.example").Return(user, nil).Once()

		provider := auth.NewUserProvider(users)
		_, err := provider.VerifyPassword(ctx, "teacher@school.example", "teacher-password")

		assert.True(t, auth.IsAccountDeactivated(err))
	})
}

func TestStudentPinProviderVerifyPin(t *testing.T) {
	ctx := context.Background()

	pinHash := mustHash(t, "482913")
	studentID := uuid.New()

	makeStudent := func() *auth.Student {
		return &auth.Student{
			ID:        studentID,
			Name:      "Ada Obi",
			RegNumber: "STU/2024/001",
			PINHash:   pinHash,
			HasPinSet: true,
		}
	}

	t.Run("valid PIN with existing account", func(t *testing.T) {
		students := new(MockStudentDirectory)
		users := new(MockUserDirectory)

		user := &auth.User{ID: uuid.New(), Role: auth.RoleStudent, StudentID: &studentID, IsActive: true}

		students.On("StudentByRegNumber", ctx, "STU/2024/001").Return(makeStudent(), nil).Once()
		users.On("UserByStudent", ctx, studentID).Return(user, nil).Once()
		users.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		provider := auth.NewStudentPinProvider(students, users)
		got, err := provider.VerifyPin(ctx, "STU/2024/001", "482913")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		users.AssertNotCalled(t, "ProvisionStudentUser", mock.Anything, mock.Anything)
	})

	t.Run("first login provisions the portal account", func(t *testing.T) {
		students := new(MockStudentDirectory)
		users := new(MockUserDirectory)

		provisioned := &auth.User{ID: uuid.New(), Role: auth.RoleStudent, StudentID: &studentID, IsActive: true}

		students.On("StudentByRegNumber", ctx, "STU/2024/001").Return(makeStudent(), nil).Once()
		users.On("UserByStudent", ctx, studentID).Return(nil, nil).Once()
		users.On("ProvisionStudentUser", ctx, mock.Anything).Return(provisioned, nil).Once()
		users.On("TrackSuccessfulLogin", ctx, provisioned).Return(nil).Once()

		provider := auth.NewStudentPinProvider(students, users)
		got, err := provider.VerifyPin(ctx, "STU/2024/001", "482913")

		require.NoError(t, err)
		assert.Equal(t, provisioned.ID, got.ID)
		users.AssertExpectations(t)
	})

	t.Run("provisioning happens even when the PIN is wrong", func(t *testing.T) {
		students := new(MockStudentDirectory)
		users := new(MockUserDirectory)

		provisioned := &auth.User{ID: uuid.New(), Role: auth.RoleStudent, StudentID: &studentID, IsActive: true}

		students.On("StudentByRegNumber", ctx, "STU/2024/001").Return(makeStudent(), nil).Once()
		users.On("UserByStudent", ctx, studentID).Return(nil, nil).Once()
		users.On("ProvisionStudentUser", ctx, mock.Anything).Return(provisioned, nil).Once()
		users.On("TrackAttemptedLogin", ctx, provisioned).Return(nil).Once()

		provider := auth.NewStudentPinProvider(students, users)
		_, err := provider.VerifyPin(ctx, "STU/2024/001", "000000")

		assert.True(t, auth.IsInvalidCredentials(err))
		users.AssertExpectations(t)
	})

	t.Run("malformed PIN is rejected before any lookup", func(t *testing.T) {
		students := new(MockStudentDirectory)
		users := new(MockUserDirectory)

		provider := auth.NewStudentPinProvider(students, users)
		_, err := provider.VerifyPin(ctx, "STU/2024/001", "12a4")

		assert.Error(t, err)
		students.AssertNotCalled(t, "StudentByRegNumber", mock.Anything, mock.Anything)
	})

	t.Run("unknown admission number", func(t *testing.T) {
		students := new(MockStudentDirectory)
		students.On("StudentByRegNumber", ctx, "STU/0000/000").Return(nil, nil).Once()

		provider := auth.NewStudentPinProvider(students, new(MockUserDirectory))
		_, err := provider.VerifyPin(ctx, "STU/0000/000", "482913")

		assert.True(t, auth.IsInvalidCredentials(err))
	})

	t.Run("student without a PIN issued", func(t *testing.T) {
		students := new(MockStudentDirectory)
		bare := makeStudent()
		bare.HasPinSet = false
		bare.PINHash = ""
		students.On("StudentByRegNumber", ctx, "STU/2024/001").Return(bare, nil).Once()

		provider := auth.NewStudentPinProvider(students, new(MockUserDirectory))
		_, err := provider.VerifyPin(ctx, "STU/2024/001", "482913")

		assert.True(t, auth.IsInvalidCredentials(err))
	})

	t.Run("deactivated student account", func(t *testing.T) {
		students := new(MockStudentDirectory)
		users := new(MockUserDirectory)

		user := &auth.User{ID: uuid.New(), Role: auth.RoleStudent, StudentID: &studentID, IsActive: false}

		students.On("StudentByRegNumber", ctx, "STU/2024/001").Return(makeStudent(), nil).Once()
		users.On("UserByStudent", ctx, studentID).Return(user, nil).Once()

		provider := auth.NewStudentPinProvider(students, users)
		_, err := provider.VerifyPin(ctx, "STU/2024/001", "482913")

		assert.True(t, auth.IsAccountDeactivated(err))
	})
}
