package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// HTTPAuthenticator is the slice of RouteAuthenticator the controller needs
type HTTPAuthenticator interface {
	Login(ctx router.Context, payload LoginPayload) (string, error)
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	RequireRoles(cfg Config, errorHandler func(router.Context, error) error, roles ...UserRole) router.MiddlewareFunc
	MakeAPIAuthErrorHandler(optional bool) func(router.Context, error) error
}

// GetRouterSession recovers the session from claims stored by the jwtware
// middleware under the configured locals key.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	raw := c.Locals(key)
	if raw == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := raw.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

// RegisterAuthRoutes mounts the authentication endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeAPIAuthErrorHandler(false),
	)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.
		Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("auth.forgot-password")

	app.
		Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("auth.reset-password")

	app.
		Get(controller.Routes.Me, controller.MeShow, protected).
		SetName("users.me")

	app.
		Post(controller.Routes.ChangePassword, controller.ChangePasswordPost, protected).
		SetName("users.change-password")
}

type AuthControllerRoutes struct {
	Login          string
	Register       string
	ForgotPassword string
	ResetPassword  string
	Me             string
	ChangePassword string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Config       Config
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Hooks        *LifecycleHooks
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:          "/auth/login",
			Register:       "/auth/register",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
			Me:             "/users/me",
			ChangePassword: "/users/me/change-password",
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

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithControllerAuther sets the HTTP authenticator.
func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerConfig sets the auth configuration.
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerHooks sets the lifecycle hooks passed to command handlers.
func WithControllerHooks(hooks *LifecycleHooks) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Hooks = hooks
		return c
	}
}

// WithControllerDebug toggles payload dumps.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Identifier,
				validation.Required,
				is.Email,
			),
			validation.Field(
				&r.Password,
				validation.Required,
			),
		)
	}, "Invalid login request payload")
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return badRequestJSON(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequestJSON(ctx, "Error validating payload", err.ValidationMap())
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		// every credential failure looks the same from outside
		return ctx.JSON(router.StatusUnauthorized, router.ViewContext{
			"error":     "Unauthorized",
			"message":   ErrMismatchedHashAndPassword.Message,
			"text_code": ErrMismatchedHashAndPassword.TextCode,
		})
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
		)
	}, "Invalid registration payload")
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return badRequestJSON(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return badRequestJSON(ctx, "Error validating payload", err.ValidationMap())
	}

	var created *User
	req := RegisterUserMessage{
		Email:    payload.Email,
		Role:     string(RoleViewer),
		Password: payload.Password,
		OnResponse: func(user *User) {
			created = user
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo).
		WithHooks(a.Hooks).
		WithLogger(a.Logger)

	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return badRequestJSON(ctx, "Unable to register user", nil)
	}

	return ctx.JSON(router.StatusCreated, PublicUser(created))
}

// ForgotPasswordPayload holds values for a password reset request
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Email,
				validation.Required,
				is.Email,
			),
		)
	}, "Invalid password reset request")
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload", "error", err)
		return badRequestJSON(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequestJSON(ctx, "Error validating payload", err.ValidationMap())
	}

	req := InitializePasswordResetMessage{
		Stage: ResetInit,
		Email: payload.Email,
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo).
		WithHooks(a.Hooks).
		WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("initialize password reset error", "error", err)
	}

	// 202 regardless of outcome so the endpoint cannot confirm accounts
	return ctx.JSON(router.StatusAccepted, router.ViewContext{
		"message": "If the account exists, a reset link has been issued",
	})
}

// ResetPasswordPayload holds values to finalize a password reset
type ResetPasswordPayload struct {
	Token       string `form:"token" json:"token"`
	NewPassword string `form:"new_password" json:"new_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Token, validation.Required, is.UUID),
			validation.Field(&r.NewPassword, validation.Required, validation.Length(1, 100)),
		)
	}, "Invalid password reset payload")
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload", "error", err)
		return badRequestJSON(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequestJSON(ctx, "Error validating payload", err.ValidationMap())
	}

	req := FinalizePasswordResetMessage{
		Session:  payload.Token,
		Password: payload.NewPassword,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).
		WithHooks(a.Hooks).
		WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("finalize password reset error", "error", err)
		return badRequestJSON(ctx, ErrResetInvalid.Message, nil)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Password has been reset",
	})
}

func (a *AuthController) MeShow(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, PublicUser(user))
}

// ChangePasswordPayload carries a password rotation request
type ChangePasswordPayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
}

// Validate will validate the payload
func (r ChangePasswordPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.CurrentPassword, validation.Required),
			validation.Field(&r.NewPassword, validation.Required, validation.Length(1, 100)),
		)
	}, "Invalid change password payload")
}

func (a *AuthController) ChangePasswordPost(ctx router.Context) error {
	payload := new(ChangePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("change password parse payload", "error", err)
		return badRequestJSON(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequestJSON(ctx, "Error validating payload", err.ValidationMap())
	}

	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	userID, err := session.GetUserIntID()
	if err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodeSession)
	}

	req := ChangePasswordMessage{
		UserID:          userID,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	changePassword := NewChangePasswordHandler(a.Repo).WithLogger(a.Logger)

	if err := changePassword.Execute(ctx.Context(), req); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return badRequestJSON(ctx, "Invalid current password", nil)
		}
		a.Logger.Error("change password error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Password changed successfully",
	})
}

func (a *AuthController) currentUser(ctx router.Context) (*User, error) {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return nil, err
	}

	userID, err := session.GetUserIntID()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

// PublicUser is the serializable shape of a user record, hash excluded.
func PublicUser(user *User) router.ViewContext {
	if user == nil {
		return router.ViewContext{}
	}

	return router.ViewContext{
		"id":           user.ID,
		"email":        user.Email,
		"role":         user.Role,
		"is_active":    user.IsActive,
		"is_superuser": user.IsSuperuser,
		"is_verified":  user.IsVerified,
	}
}

func badRequestJSON(ctx router.Context, message string, validationMap map[string]string) error {
	body := router.ViewContext{
		"error":   "Bad Request",
		"message": message,
	}
	if len(validationMap) > 0 {
		body["validation"] = validationMap
	}
	return ctx.JSON(router.StatusBadRequest, body)
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	return c.JSON(code, router.ViewContext{
		"error":     "Error",
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}
