package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAuthRoutes mounts the session lifecycle endpoints on the given
// router. The refresh and logout routes sit behind the refresh guard, the
// self route behind the access guard.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Post(
		controller.Routes.Refresh,
		controller.HTTP.RefreshProtected()(controller.RefreshPost),
	).SetName("auth.refresh")

	app.Post(
		controller.Routes.Logout,
		controller.HTTP.RefreshProtected()(controller.LogoutPost),
	).SetName("auth.logout")

	app.Get(
		controller.Routes.Self,
		controller.HTTP.AccessProtected()(controller.SelfGet),
	).SetName("auth.self")
}

type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Register string
	Refresh  string
	Self     string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Session      *SessionManager
	HTTP         *HTTPAuth
	Routes       *AuthControllerRoutes
	ContextKey   string
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Logout:   "/auth/logout",
			Register: "/auth/register",
			Refresh:  "/auth/refresh",
			Self:     "/auth/self",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.errorResponse
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Session == nil {
		panic("Missing SessionManager in auth controller...")
	}

	if c.HTTP == nil {
		panic("Missing HTTPAuth in auth controller...")
	}

	return c
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerSession(session *SessionManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Session = session
		return c
	}
}

func WithControllerHTTP(http *HTTPAuth) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.HTTP = http
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
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

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	pair, err := a.Session.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("login error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.SetTokenCookies(ctx, *pair)

	return ctx.JSON(router.StatusOK, pair)
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	TenantID        string `form:"tenant_id" json:"tenant_id"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.TenantID, is.UUIDv4.Error("must be a valid tenant id")),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: %s", err)
		return a.badRequest(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: %s", err)
		return a.badRequest(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	req := RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
		TenantID:  payload.TenantID,
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	user, err := registerUser.Execute(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("register user error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Session.IssueTokens(ctx.Context(), NewIdentityFromUser(user))
	if err != nil {
		a.Logger.Error("register user issue tokens: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.SetTokenCookies(ctx, *pair)

	return ctx.JSON(router.StatusCreated, map[string]any{
		"id": user.ID,
	})
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenRevoked)
	}

	pair, err := a.Session.Refresh(ctx.Context(), claims)
	if err != nil {
		a.Logger.Error("refresh error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.SetTokenCookies(ctx, *pair)

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenRevoked)
	}

	if err := a.Session.Logout(ctx.Context(), claims); err != nil {
		a.Logger.Error("logout error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.ClearTokenCookies(ctx)

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "logged out",
	})
}

func (a *AuthController) SelfGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	user, err := a.Session.Self(ctx.Context(), claims)
	if err != nil {
		a.Logger.Error("self error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

func (a *AuthController) badRequest(ctx router.Context, message string, fields map[string]string) error {
	body := router.ViewContext{
		"error": message,
	}
	if len(fields) > 0 {
		body["validation"] = fields
	}
	return ctx.JSON(router.StatusBadRequest, body)
}

func (a *AuthController) errorResponse(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	body := router.ViewContext{
		"error": richErr.Message,
	}

	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	if a.Debug && len(richErr.Metadata) > 0 {
		body["metadata"] = richErr.Metadata
	}

	code := richErr.Code
	if code == 0 {
		code = errors.CodeInternal
	}

	return ctx.JSON(code, body)
}

// ValidateStringEquals will check that both values match, empty values pass.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber accepts E.164 style numbers, empty values pass.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return fmt.Errorf("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
