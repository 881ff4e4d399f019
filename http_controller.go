package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// HTTPAuthenticator is the middleware surface the controller builds on.
type HTTPAuthenticator interface {
	Login(ctx router.Context, cred Credential) (*LoginResult, error)
	LoginAdmin(ctx router.Context, email, password string) (*LoginResult, error)
	Logout(ctx router.Context) error
	Protect(roles RoleSet) router.MiddlewareFunc
	PublicOrProtected(roles RoleSet) router.MiddlewareFunc
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	adminOnly := controller.Auther.Protect(NewRoleSet(RoleAdmin))
	studentOnly := controller.Auther.Protect(NewRoleSet(RoleStudent))
	anyUser := controller.Auther.Protect(NewRoleSet())

	app.
		Post(controller.Routes.AdminLogin, controller.AdminLoginPost).
		SetName("auth.admin-login")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Post(controller.Routes.StudentLogin, controller.StudentLoginPost).
		SetName("auth.student-login")

	app.
		Get(controller.Routes.Logout, controller.LogOut, anyUser).
		SetName("auth.logout")

	app.
		Post(controller.Routes.ChangePassword, controller.ChangePassword, anyUser).
		SetName("auth.change-password")

	app.
		Post(controller.Routes.ChangePin, controller.ChangePin, studentOnly).
		SetName("auth.change-pin")

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate, adminOnly).
		SetName("users.register")

	app.
		Post("/users/:id/activate", controller.ActivateUser, adminOnly).
		SetName("users.activate")
	app.
		Post("/users/:id/deactivate", controller.DeactivateUser, adminOnly).
		SetName("users.deactivate")

	app.
		Post("/students/:id/generate-pin", controller.GeneratePin, adminOnly).
		SetName("students.generate-pin")
	app.
		Post("/students/:id/reset-pin", controller.ResetPin, adminOnly).
		SetName("students.reset-pin")
	app.
		Post("/students/:id/set-pin", controller.SetPin, adminOnly).
		SetName("students.set-pin")
	app.
		Post("/students/bulk-generate-pins", controller.BulkGeneratePins, adminOnly).
		SetName("students.bulk-generate-pins")
	app.
		Get("/students/:id/pin-status", controller.PinStatus, adminOnly).
		SetName("students.pin-status")
	app.
		Get("/students/pin-report", controller.PinReport, adminOnly).
		SetName("students.pin-report")
}

type AuthControllerRoutes struct {
	AdminLogin     string
	Login          string
	StudentLogin   string
	Logout         string
	ChangePassword string
	ChangePin      string
	Register       string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Routes   *AuthControllerRoutes
	Auther   HTTPAuthenticator
	Pins     *PinService
	Accounts *AccountService
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			AdminLogin:     "/auth/admin/login",
			Login:          "/auth/login",
			StudentLogin:   "/auth/student/login",
			Logout:         "/auth/logout",
			ChangePassword: "/auth/change-password",
			ChangePin:      "/auth/change-pin",
			Register:       "/users/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Pins == nil {
		c.Pins = NewPinService(c.Repo)
	}

	if c.Accounts == nil {
		c.Accounts = NewAccountService(c.Repo)
	}

	return c
}

// AdminLoginRequest payload
type AdminLoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r AdminLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) AdminLoginPost(ctx router.Context) error {
	payload := new(AdminLoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= ADMIN LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==========================")
	}

	result, err := a.Auther.LoginAdmin(ctx, payload.Email, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return a.renderLogin(ctx, result)
}

// LoginRequest is the combined legacy payload: it carries both credential
// shapes and the populated pair decides the branch.
type LoginRequest struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	AdmissionNumber string `form:"admission_number" json:"admission_number"`
	Pin             string `form:"pin" json:"pin"`
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse login payload"))
	}

	cred, err := CredentialFromFields(payload.Email, payload.Password, payload.AdmissionNumber, payload.Pin)
	if err != nil {
		return a.renderError(ctx, err)
	}

	result, err := a.Auther.Login(ctx, cred)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return a.renderLogin(ctx, result)
}

// StudentLoginRequest payload
type StudentLoginRequest struct {
	AdmissionNumber string `form:"admission_number" json:"admission_number"`
	Pin             string `form:"pin" json:"pin"`
}

// Validate will run validation rules
func (r StudentLoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.AdmissionNumber,
			validation.Required,
		),
		validation.Field(
			&r.Pin,
			validation.Required,
			validation.Length(PinMinLength, PinMaxLength),
			is.Digit,
		),
	)
}

func (a *AuthController) StudentLoginPost(ctx router.Context) error {
	payload := new(StudentLoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	result, err := a.Auther.Login(ctx, PINCredential{
		AdmissionNumber: payload.AdmissionNumber,
		PIN:             payload.Pin,
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return a.renderLogin(ctx, result)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	if err := a.Auther.Logout(ctx); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
	})
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(MinPasswordLength, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *AuthController) ChangePassword(ctx router.Context) error {
	payload := new(ChangePasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	principal, ok := PrincipalFromContext(ctx.Context())
	if !ok {
		return a.renderError(ctx, ErrMissingCredentials)
	}

	if err := a.Accounts.ChangePassword(ctx.Context(), principal, payload.CurrentPassword, payload.NewPassword); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
	})
}

// ChangePinRequest payload
type ChangePinRequest struct {
	CurrentPin string `form:"current_pin" json:"current_pin"`
	NewPin     string `form:"new_pin" json:"new_pin"`
	ConfirmPin string `form:"confirm_pin" json:"confirm_pin"`
}

// Validate will run validation rules
func (r ChangePinRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPin, validation.Required),
		validation.Field(
			&r.NewPin,
			validation.Required,
			validation.Length(PinMinLength, PinMaxLength),
			is.Digit,
		),
		validation.Field(
			&r.ConfirmPin,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPin)),
		),
	)
}

func (a *AuthController) ChangePin(ctx router.Context) error {
	payload := new(ChangePinRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	principal, ok := PrincipalFromContext(ctx.Context())
	if !ok {
		return a.renderError(ctx, ErrMissingCredentials)
	}

	if err := a.Pins.ChangeOwnPin(ctx.Context(), principal, payload.CurrentPin, payload.NewPin); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
	})
}

// RegistrationCreatePayload is the admin-facing user creation payload
type RegistrationCreatePayload struct {
	Name      string `form:"name" json:"name"`
	Email     string `form:"email" json:"email"`
	Phone     string `form:"phone_number" json:"phone_number"`
	Role      string `form:"role" json:"role"`
	Password  string `form:"password" json:"password"`
	StudentID string `form:"student_id" json:"student_id"`
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	req := RegisterUserMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Role:      payload.Role,
		Password:  payload.Password,
		StudentID: payload.StudentID,
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"status": "success",
	})
}

func (a *AuthController) ActivateUser(ctx router.Context) error {
	return a.setUserActive(ctx, true)
}

func (a *AuthController) DeactivateUser(ctx router.Context) error {
	return a.setUserActive(ctx, false)
}

func (a *AuthController) setUserActive(ctx router.Context, active bool) error {
	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id"))
	}

	var user *User
	if active {
		user, err = a.Accounts.Activate(ctx.Context(), a.actor(ctx), userID)
	} else {
		user, err = a.Accounts.Deactivate(ctx.Context(), a.actor(ctx), userID)
	}

	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"user": user,
		},
	})
}

func (a *AuthController) GeneratePin(ctx router.Context) error {
	studentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid student id"))
	}

	pin, err := a.Pins.GeneratePin(ctx.Context(), a.actor(ctx), studentID)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"pin": pin,
		},
	})
}

func (a *AuthController) ResetPin(ctx router.Context) error {
	studentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid student id"))
	}

	pin, err := a.Pins.ResetPin(ctx.Context(), a.actor(ctx), studentID)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"pin": pin,
		},
	})
}

// SetPinRequest payload
type SetPinRequest struct {
	Pin string `form:"pin" json:"pin"`
}

// Validate will run validation rules
func (r SetPinRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Pin,
			validation.Required,
			validation.Length(PinMinLength, PinMaxLength),
			is.Digit,
		),
	)
}

func (a *AuthController) SetPin(ctx router.Context) error {
	studentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid student id"))
	}

	payload := new(SetPinRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidation(ctx, err)
	}

	if err := a.Pins.SetPin(ctx.Context(), a.actor(ctx), studentID, payload.Pin); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
	})
}

func (a *AuthController) BulkGeneratePins(ctx router.Context) error {
	results, err := a.Pins.BulkGeneratePins(ctx.Context(), a.actor(ctx))
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"pins": results,
		},
	})
}

func (a *AuthController) PinStatus(ctx router.Context) error {
	studentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid student id"))
	}

	status, err := a.Pins.PinStatus(ctx.Context(), studentID)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"pin_status": status,
		},
	})
}

func (a *AuthController) PinReport(ctx router.Context) error {
	report, err := a.Pins.PinReport(ctx.Context())
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"report": report,
		},
	})
}

func (a *AuthController) renderLogin(ctx router.Context, result *LoginResult) error {
	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(SnapshotPrincipal(result.Principal, "")))
		fmt.Println("=========================")
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"status":     "success",
		"token":      result.Token,
		"expires_in": result.ExpiresIn,
		"data": map[string]any{
			"user": SnapshotPrincipal(result.Principal, ""),
		},
	})
}

func (a *AuthController) renderValidation(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, map[string]any{
		"status":     "fail",
		"message":    "validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

func (a *AuthController) renderError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(fiber.StatusInternalServerError)
	}

	code := richErr.Code
	if code == 0 {
		code = fiber.StatusInternalServerError
	}

	status := "error"
	if code < fiber.StatusInternalServerError {
		status = "fail"
	}

	return ctx.JSON(code, map[string]any{
		"status":    status,
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func (a *AuthController) actor(ctx router.Context) ActorRef {
	if principal, ok := PrincipalFromContext(ctx.Context()); ok {
		return ActorRef{ID: principal.ID(), Type: string(principal.Kind())}
	}
	return ActorRef{Type: "unknown"}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
