package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// BulkPinResult pairs a student with the plaintext PIN just generated for
// them. The plaintext exists only in this result; the store keeps hashes.
type BulkPinResult struct {
	StudentID uuid.UUID `json:"student_id"`
	RegNumber string    `json:"reg_number"`
	Pin       string    `json:"pin"`
}

// PinService is the administrative surface for student PIN credentials.
// Generated PINs are returned in plaintext exactly once so they can be
// distributed; only bcrypt hashes are persisted.
type PinService struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

func NewPinService(repo RepositoryManager) *PinService {
	return &PinService{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (s *PinService) WithLogger(logger Logger) *PinService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *PinService) WithActivitySink(sink ActivitySink) *PinService {
	s.sink = normalizeActivitySink(sink)
	return s
}

// GeneratePin issues a fresh random PIN for the student, replacing any
// existing one. The previous PIN stops working immediately.
func (s *PinService) GeneratePin(ctx context.Context, actor ActorRef, studentID uuid.UUID) (string, error) {
	pin, err := RandomPin()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate PIN")
	}

	if err := s.installPin(ctx, studentID, pin); err != nil {
		return "", err
	}

	s.recordPinEvent(ctx, ActivityEventPinGenerated, actor, studentID)

	return pin, nil
}

// ResetPin invalidates the current PIN and issues a new random one. Used
// when a student forgot their PIN.
func (s *PinService) ResetPin(ctx context.Context, actor ActorRef, studentID uuid.UUID) (string, error) {
	pin, err := RandomPin()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate PIN")
	}

	if err := s.installPin(ctx, studentID, pin); err != nil {
		return "", err
	}

	s.recordPinEvent(ctx, ActivityEventPinReset, actor, studentID)

	return pin, nil
}

// SetPin installs an admin-chosen PIN. The PIN must pass shape validation
// like any other.
func (s *PinService) SetPin(ctx context.Context, actor ActorRef, studentID uuid.UUID, pin string) error {
	if err := s.installPin(ctx, studentID, pin); err != nil {
		return err
	}

	s.recordPinEvent(ctx, ActivityEventPinChanged, actor, studentID)

	return nil
}

// BulkGeneratePins issues a PIN for every student that does not have one
// yet. Students that already hold a PIN are untouched.
func (s *PinService) BulkGeneratePins(ctx context.Context, actor ActorRef) ([]BulkPinResult, error) {
	pending, err := s.repo.Students().ListWithoutPin(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list students without PIN")
	}

	results := make([]BulkPinResult, 0, len(pending))
	for _, student := range pending {
		pin, err := s.GeneratePin(ctx, actor, student.ID)
		if err != nil {
			s.logger.Error("bulk PIN generation failed for student", "student", student.ID, "error", err)
			return results, err
		}

		results = append(results, BulkPinResult{
			StudentID: student.ID,
			RegNumber: student.RegNumber,
			Pin:       pin,
		})
	}

	return results, nil
}

// ChangeOwnPin lets a student rotate their own PIN after proving knowledge
// of the current one.
func (s *PinService) ChangeOwnPin(ctx context.Context, principal Principal, currentPin, newPin string) error {
	if principal == nil || principal.Kind() == PrincipalAnonymous {
		return ErrMissingCredentials
	}

	// The route gate already restricts this to students; re-check here so a
	// parent principal carrying a student reference cannot rotate the PIN.
	if principal.Role() != RoleStudent {
		return ErrRoleMismatch
	}

	scoped, ok := principal.(StudentScoped)
	if !ok {
		return ErrRoleMismatch
	}

	studentID, has := scoped.StudentRef()
	if !has {
		return ErrRoleMismatch
	}

	student, err := s.repo.Students().GetByID(ctx, studentID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load student record")
	}

	if !student.HasPinSet || student.PINHash == "" {
		return ErrInvalidCredentials
	}

	if err := ComparePinAndHash(currentPin, student.PINHash); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.installPin(ctx, studentID, newPin); err != nil {
		return err
	}

	s.recordPinEvent(ctx, ActivityEventPinChanged, ActorRef{ID: principal.ID(), Type: string(principal.Kind())}, studentID)

	return nil
}

// PinStatus reports the PIN credential state for one student.
func (s *PinService) PinStatus(ctx context.Context, studentID uuid.UUID) (*PinStatus, error) {
	student, err := s.repo.Students().GetByID(ctx, studentID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load student record")
	}

	return &PinStatus{
		StudentID:      student.ID,
		RegNumber:      student.RegNumber,
		HasPinSet:      student.HasPinSet,
		PinLastChanged: student.PinLastChanged,
	}, nil
}

// PinReport lists the PIN credential state for every student.
func (s *PinService) PinReport(ctx context.Context) ([]PinStatus, error) {
	return s.repo.Students().PinReport(ctx)
}

func (s *PinService) installPin(ctx context.Context, studentID uuid.UUID, pin string) error {
	hash, err := HashPin(pin)
	if err != nil {
		return err
	}

	if _, err := s.repo.Students().SetPin(ctx, studentID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store PIN")
	}

	return nil
}

func (s *PinService) recordPinEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, studentID uuid.UUID) {
	err := normalizeActivitySink(s.sink).Record(ctx, ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		SubjectID:  studentID.String(),
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
