package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Admins() Admins
	Users() Users
	Students() Students
}

type mngr struct {
	db       *bun.DB
	admins   Admins
	users    Users
	students Students
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		admins:   NewAdminsRepository(db),
		users:    NewUsersRepository(db),
		students: NewStudentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.admins == nil {
		return errors.New("repository admins should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.students == nil {
		return errors.New("repository students should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Admins() Admins {
	return m.admins
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Students() Students {
	return m.students
}

// Directory adapts the repositories to the narrow lookup interfaces the
// verification providers and the resolver consume. Repositories report a
// miss as a not-found error; the directory converts it to (nil, nil) so
// callers can keep probing without unpacking storage errors.
type Directory struct {
	repos RepositoryManager
}

var (
	_ AdminDirectory   = (*Directory)(nil)
	_ UserDirectory    = (*Directory)(nil)
	_ StudentDirectory = (*Directory)(nil)
	_ PrincipalSource  = (*Directory)(nil)
)

// NewDirectory wraps a RepositoryManager.
func NewDirectory(repos RepositoryManager) *Directory {
	return &Directory{repos: repos}
}

func (d *Directory) AdminByEmail(ctx context.Context, email string) (*Admin, error) {
	admin, err := d.repos.Admins().GetByEmail(ctx, email)
	return admin, swallowNotFound(err)
}

func (d *Directory) UserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := d.repos.Users().GetByEmail(ctx, email)
	return user, swallowNotFound(err)
}

func (d *Directory) UserByStudent(ctx context.Context, studentID uuid.UUID) (*User, error) {
	user, err := d.repos.Users().GetByStudent(ctx, studentID)
	return user, swallowNotFound(err)
}

func (d *Directory) StudentByRegNumber(ctx context.Context, regNumber string) (*Student, error) {
	student, err := d.repos.Students().GetByRegNumber(ctx, regNumber)
	return student, swallowNotFound(err)
}

func (d *Directory) ProvisionStudentUser(ctx context.Context, student *Student) (*User, error) {
	return d.repos.Users().ProvisionStudentUser(ctx, student)
}

func (d *Directory) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return d.repos.Users().TrackAttemptedLogin(ctx, user)
}

func (d *Directory) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return d.repos.Users().TrackSuccessfulLogin(ctx, user)
}

func (d *Directory) FindAdminByID(ctx context.Context, id string) (*Admin, error) {
	admin, err := d.repos.Admins().GetByID(ctx, id)
	return admin, swallowNotFound(err)
}

func (d *Directory) FindUserByID(ctx context.Context, id string) (*User, error) {
	user, err := d.repos.Users().GetByID(ctx, id)
	return user, swallowNotFound(err)
}

func swallowNotFound(err error) error {
	if err == nil || repository.IsRecordNotFound(err) {
		return nil
	}
	return err
}
