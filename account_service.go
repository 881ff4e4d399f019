package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccountService covers administrative account lifecycle and self-service
// password changes for portal users.
type AccountService struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

func NewAccountService(repo RepositoryManager) *AccountService {
	return &AccountService{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (s *AccountService) WithLogger(logger Logger) *AccountService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *AccountService) WithActivitySink(sink ActivitySink) *AccountService {
	s.sink = normalizeActivitySink(sink)
	return s
}

// Deactivate flips the user inactive. Existing bearer tokens keep verifying
// until expiry; the active check at resolution time is what locks the
// account out.
func (s *AccountService) Deactivate(ctx context.Context, actor ActorRef, userID uuid.UUID) (*User, error) {
	user, err := s.repo.Users().SetActive(ctx, userID, false)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate user")
	}

	s.recordAccountEvent(ctx, ActivityEventUserDeactivated, actor, userID)

	return user, nil
}

// Activate flips the user active again.
func (s *AccountService) Activate(ctx context.Context, actor ActorRef, userID uuid.UUID) (*User, error) {
	user, err := s.repo.Users().SetActive(ctx, userID, true)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate user")
	}

	s.recordAccountEvent(ctx, ActivityEventUserActivated, actor, userID)

	return user, nil
}

// ChangePassword rotates the caller's own password after proving knowledge
// of the current one.
func (s *AccountService) ChangePassword(ctx context.Context, principal Principal, currentPassword, newPassword string) error {
	if principal == nil || principal.Kind() == PrincipalAnonymous {
		return ErrMissingCredentials
	}

	if len(newPassword) < MinPasswordLength {
		return ErrInvalidFormat.Clone().
			WithMetadata(map[string]any{
				"min_length": MinPasswordLength,
			})
	}

	user, err := s.repo.Users().GetByID(ctx, principal.ID())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user record")
	}

	if err := CompareSecretAndHash(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashSecret(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := s.repo.Users().ResetPassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password")
	}

	s.recordAccountEvent(ctx, ActivityEventPasswordChanged, ActorRef{ID: principal.ID(), Type: string(principal.Kind())}, user.ID)

	return nil
}

// AdminResetPassword installs a new password on a user's behalf without
// requiring the current one.
func (s *AccountService) AdminResetPassword(ctx context.Context, actor ActorRef, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrInvalidFormat.Clone().
			WithMetadata(map[string]any{
				"min_length": MinPasswordLength,
			})
	}

	hash, err := HashSecret(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := s.repo.Users().ResetPassword(ctx, userID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password")
	}

	s.recordAccountEvent(ctx, ActivityEventPasswordChanged, actor, userID)

	return nil
}

func (s *AccountService) recordAccountEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID uuid.UUID) {
	err := normalizeActivitySink(s.sink).Record(ctx, ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		SubjectID:  userID.String(),
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
