package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// MinPasswordLength is the minimum accepted password length for portal users.
const MinPasswordLength = 6

// defaultPhoneRegion is used when a submitted phone number has no country
// prefix. Matches the deployment region of the portal.
const defaultPhoneRegion = "NG"

type RegisterUserMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Password  string `json:"password"`
	StudentID string `json:"student_id"`
	UseHashid bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Role, validation.Required, validation.By(validateUserRole)),
		validation.Field(&e.Password, validation.Required, validation.Length(MinPasswordLength, 100)),
	}

	if roleNeedsStudentRef(e.Role) {
		rules = append(rules, validation.Field(&e.StudentID, validation.Required, is.UUID))
	}

	return validation.ValidateStruct(&e, rules...)
}

func validateUserRole(value any) error {
	role, _ := value.(string)
	if !IsValidUserRole(role) {
		return goerrors.New("unknown user role", goerrors.CategoryValidation)
	}
	return nil
}

func roleNeedsStudentRef(role string) bool {
	return role == RoleStudent || role == RoleParent
}

// RegisterUserHandler creates portal user accounts. Student and parent
// accounts must reference an existing student record.
type RegisterUserHandler struct {
	repo RepositoryManager
	sink ActivitySink
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo: repo,
		sink: noopActivitySink{},
	}
}

// WithActivitySink configures a sink for provisioning events.
func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashSecret(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Name = event.Name
		user.Email = event.Email
		user.Role = event.Role
		user.IsActive = true

		if phone, err := normalizePhone(event.Phone); err == nil {
			user.Phone = phone
		} else if event.Phone != "" {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number")
		}

		if event.StudentID != "" {
			studentID, err := uuid.Parse(event.StudentID)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid student reference")
			}

			if _, err := h.repo.Students().GetByID(ctx, studentID.String()); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "student reference does not exist")
			}

			user.StudentID = &studentID
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.recordProvisioned(ctx, user)

	return nil
}

func (h *RegisterUserHandler) recordProvisioned(ctx context.Context, user *User) {
	_ = normalizeActivitySink(h.sink).Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserProvisioned,
		Actor:      ActorRef{Type: "admin"},
		SubjectID:  user.ID.String(),
		Metadata:   map[string]any{"role": user.Role},
		OccurredAt: time.Now(),
	})
}

// normalizePhone canonicalizes a phone number to E.164. Numbers without a
// country prefix are parsed against the default region.
func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", err
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("phone number is not valid", goerrors.CategoryValidation)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
