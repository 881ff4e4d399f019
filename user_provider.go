package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AdminDirectory is the narrow store surface admin verification needs.
// Lookups return (nil, nil) when no record matches.
type AdminDirectory interface {
	AdminByEmail(ctx context.Context, email string) (*Admin, error)
}

// UserDirectory is the narrow store surface user verification needs.
type UserDirectory interface {
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByStudent(ctx context.Context, studentID uuid.UUID) (*User, error)
	// ProvisionStudentUser creates the portal account for a student's first
	// login, seeding the password hash with the student's PIN hash as a
	// placeholder.
	ProvisionStudentUser(ctx context.Context, student *Student) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// StudentDirectory is the narrow store surface PIN verification needs.
type StudentDirectory interface {
	StudentByRegNumber(ctx context.Context, regNumber string) (*Student, error)
}

// AdminProvider verifies administrator password credentials.
type AdminProvider struct {
	admins AdminDirectory
	logger Logger
}

// NewAdminProvider creates an AdminProvider.
func NewAdminProvider(admins AdminDirectory) *AdminProvider {
	return &AdminProvider{admins: admins, logger: defLogger{}}
}

// WithLogger overrides the fallback logger.
func (p *AdminProvider) WithLogger(l Logger) *AdminProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyPassword checks the email/password pair against the admin table. An
// unknown email and a wrong password are indistinguishable to the caller.
func (p *AdminProvider) VerifyPassword(ctx context.Context, email, password string) (*Admin, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	admin, err := p.admins.AdminByEmail(ctx, email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve admin during verification")
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}

	if err := CompareSecretAndHash(password, admin.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}

// UserProvider verifies password credentials for parents and teachers.
type UserProvider struct {
	users  UserDirectory
	logger Logger
}

// NewUserProvider creates a UserProvider.
func NewUserProvider(users UserDirectory) *UserProvider {
	return &UserProvider{users: users, logger: defLogger{}}
}

// WithLogger overrides the fallback logger.
func (p *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyPassword checks an email/password pair against the user table.
// Accounts whose role mandates the PIN factor are rejected here; the
// rejection is indistinguishable from a wrong password so the response never
// confirms the email exists.
func (p *UserProvider) VerifyPassword(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := p.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if UsesPinFactor(user.Role) {
		p.logger.Debug("password login attempted for a PIN-factor account")
		return nil, ErrInvalidCredentials
	}

	if err := CompareSecretAndHash(password, user.PasswordHash); err != nil {
		if err2 := p.users.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	if err := p.users.TrackSuccessfulLogin(ctx, user); err != nil {
		p.logger.Error("failed to track successful login", "error", err)
	}

	return user, nil
}

// StudentPinProvider verifies the student PIN credential and handles
// first-login account bootstrapping.
type StudentPinProvider struct {
	students StudentDirectory
	users    UserDirectory
	logger   Logger
}

// NewStudentPinProvider creates a StudentPinProvider.
func NewStudentPinProvider(students StudentDirectory, users UserDirectory) *StudentPinProvider {
	return &StudentPinProvider{
		students: students,
		users:    users,
		logger:   defLogger{},
	}
}

// WithLogger overrides the fallback logger.
func (p *StudentPinProvider) WithLogger(l Logger) *StudentPinProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyPin checks an admission-number/PIN pair. The PIN's shape is
// validated before any hashing work. If the student has no portal account
// yet, one is provisioned before normal processing continues.
func (p *StudentPinProvider) VerifyPin(ctx context.Context, regNumber, pin string) (*User, error) {
	if regNumber == "" || pin == "" {
		return nil, ErrMissingCredentials
	}

	if err := ValidatePin(pin); err != nil {
		return nil, err
	}

	student, err := p.students.StudentByRegNumber(ctx, regNumber)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve student during verification")
	}
	if student == nil || !student.HasPinSet || student.PINHash == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := p.users.UserByStudent(ctx, student.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve student account")
	}
	if user == nil {
		if user, err = p.users.ProvisionStudentUser(ctx, student); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to provision student account")
		}
		p.logger.Info("provisioned portal account for first student login", "student", student.ID)
	}

	if err := CompareSecretAndHash(pin, student.PINHash); err != nil {
		if err2 := p.users.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	if err := p.users.TrackSuccessfulLogin(ctx, user); err != nil {
		p.logger.Error("failed to track successful login", "error", err)
	}

	return user, nil
}
