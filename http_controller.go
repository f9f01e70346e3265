package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAccountRoutes mounts the login, logout, registration, and
// activation routes on app.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) {
	controller := NewAccountsController(opts...)

	app.Get(controller.Routes.Login, controller.LoginShow).
		SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).
		SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.Confirm), controller.ConfirmAccount).
		SetName("confirm.get")
}

// AccountsControllerRoutes names the mounted paths.
type AccountsControllerRoutes struct {
	Login    string
	Logout   string
	Register string
	Confirm  string
}

// AccountsControllerViews names the templates rendered by the controller.
type AccountsControllerViews struct {
	Login    string
	Register string
	Confirm  string
}

// AccountsController serves the account lifecycle over HTTP.
type AccountsController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AccountsControllerRoutes
	Views        *AccountsControllerViews
	Auther       *RouteAuthenticator
	Registerer   *RegisterAccountHandler
	Activator    *ActivateAccountHandler
	Access       func(router.Context) *AccessContext
	ErrorHandler router.ErrorHandler
}

// AccountsControllerOption configures the controller.
type AccountsControllerOption func(*AccountsController) *AccountsController

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

// WithControllerAuther sets the HTTP authenticator glue.
func WithControllerAuther(auther *RouteAuthenticator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Auther = auther
		return c
	}
}

// WithControllerRegisterer sets the registration command handler.
func WithControllerRegisterer(h *RegisterAccountHandler) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Registerer = h
		return c
	}
}

// WithControllerActivator sets the activation command handler.
func WithControllerActivator(h *ActivateAccountHandler) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Activator = h
		return c
	}
}

// WithControllerAccess sets the resolver for the per-request AccessContext.
func WithControllerAccess(resolver func(router.Context) *AccessContext) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Access = resolver
		return c
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// NewAccountsController builds the controller with default routes and views.
func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger: defLogger{},
		Routes: &AccountsControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
			Confirm:  "/confirm",
		},
		Views: &AccountsControllerViews{
			Login:    "login",
			Register: "register",
			Confirm:  "confirm",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in accounts controller...")
	}

	if c.Registerer == nil {
		panic("Missing RegisterAccountHandler in accounts controller...")
	}

	if c.Activator == nil {
		panic("Missing ActivateAccountHandler in accounts controller...")
	}

	if c.Access == nil {
		c.Access = func(router.Context) *AccessContext {
			return NewAccessContext()
		}
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Auther.ErrorHandler
	}

	return c
}

func (a *AccountsController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountsController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FieldErrors(err),
		})
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	access := a.Access(ctx)
	if err := a.Auther.Login(ctx, access, payload.Email, payload.Password); err != nil {
		a.Logger.Error("login error", "error", err)

		message := "Authentication Error"
		if IsInactiveAccount(err) {
			message = "This account has not been activated"
		}

		return ctx.Status(fiber.StatusUnauthorized).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": message},
			"record": payload,
		})
	}

	return ctx.Redirect(a.Auther.GetRedirect(ctx, "/"), router.StatusSeeOther)
}

func (a *AccountsController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx, a.Access(ctx))
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *AccountsController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegistrationInput{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (a *AccountsController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	msg := RegisterAccountMessage{
		RegistrationInput: RegistrationInput{
			FirstName:       payload.FirstName,
			LastName:        payload.LastName,
			Email:           payload.Email,
			Phone:           payload.Phone,
			Password:        payload.Password,
			PasswordConfirm: payload.ConfirmPassword,
		},
	}

	result, err := a.Registerer.Execute(ctx.Context(), msg)
	if err != nil {
		a.Logger.Error("register account error", "error", err)

		if fields := FieldErrors(err); fields != nil {
			return flash.WithError(ctx, router.ViewContext{
				"error_message":  err.Error(),
				"system_message": "Error validating payload",
			}).Render(a.Views.Register, router.ViewContext{
				"record":     payload,
				"validation": fields,
			})
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Status(fiber.StatusInternalServerError).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": []string{err.Error()},
		})
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(result.User))
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created, check your email for the activation link",
	}).Redirect("/", fiber.StatusSeeOther)
}

// ConfirmAccount redeems an activation link. A good token activates the
// account and lands on the confirm view; a bad one renders the same view
// with an error so the URL cannot be used to probe for accounts.
func (a *AccountsController) ConfirmAccount(ctx router.Context) error {
	token := ctx.Param("token", "")

	user, err := a.Activator.Execute(ctx.Context(), ActivateAccountMessage{Token: token})
	if err != nil {
		a.Logger.Error("confirm account error", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.Confirm, router.ViewContext{
			"errors": map[string]string{"token": "Unknown or expired confirmation link"},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account activated, you can sign in now",
	}).Render(a.Views.Confirm, router.ViewContext{
		"record": user,
	})
}
