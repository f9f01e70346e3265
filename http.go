package accounts

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

const redirectCookieName = "accounts_redirect"

// RouteAuthenticator glues the Authenticator to HTTP: it owns the session
// cookie and translates between router requests and session state.
type RouteAuthenticator struct {
	auth             *Authenticator
	sessions         SessionStore
	tokens           *SessionTokenService
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

// NewRouteAuthenticator builds the HTTP glue. It mints one session token
// service from cfg; ValidateConfig failures are returned as-is.
func NewRouteAuthenticator(auth *Authenticator, sessions SessionStore, cfg Config) (*RouteAuthenticator, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	a := &RouteAuthenticator{
		auth:     auth,
		sessions: sessions,
		cfg:      cfg,
		tokens: NewSessionTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			nil,
		),
		cookieDuration: time.Duration(cfg.GetTokenExpiration()) * time.Hour,
		Logger:         defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// GetCookieDuration reports the session cookie lifetime.
func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Login authenticates the payload and, on success, sets the session cookie.
func (a *RouteAuthenticator) Login(ctx router.Context, access *AccessContext, email, password string) error {
	sessionID := uuid.NewString()

	if err := a.auth.AuthenticateByPassword(ctx.Context(), access, sessionID, email, password); err != nil {
		a.Logger.Error("login error", "error", err)
		return err
	}

	state, err := a.sessions.Get(ctx.Context(), sessionID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "session state missing after login")
	}

	token, err := a.tokens.Mint(sessionID, state.User)
	if err != nil {
		return err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return nil
}

// LoginOpenID completes a federated login for a verified identity URL. A nil
// user with nil error means no account carries the identity; the caller
// should route into registration.
func (a *RouteAuthenticator) LoginOpenID(ctx router.Context, access *AccessContext, identityURL string) (*User, error) {
	sessionID := uuid.NewString()

	user, err := a.auth.AuthenticateByOpenID(ctx.Context(), access, sessionID, identityURL)
	if err != nil {
		a.Logger.Error("openid login error", "error", err)
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	token, err := a.tokens.Mint(sessionID, user)
	if err != nil {
		return nil, err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return user, nil
}

// Logout tears down the session named by the cookie and clears it.
func (a *RouteAuthenticator) Logout(ctx router.Context, access *AccessContext) {
	cookieName := a.cfg.GetSessionCookieName()

	if raw := ctx.Cookies(cookieName); raw != "" {
		if claims, err := a.tokens.Validate(raw); err == nil {
			if err := a.auth.Logout(ctx.Context(), access, claims.SessionID()); err != nil {
				a.Logger.Error("logout error", "error", err)
			}
		} else if access != nil {
			access.Clear()
		}
	} else if access != nil {
		access.Clear()
	}

	a.cookieDel(ctx, cookieName)
}

// CurrentSession resolves the request cookie to its server-side state.
func (a *RouteAuthenticator) CurrentSession(ctx router.Context) (*SessionState, error) {
	raw := ctx.Cookies(a.cfg.GetSessionCookieName())
	if raw == "" {
		return nil, ErrSessionNotFound
	}

	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}

	return a.sessions.Get(ctx.Context(), claims.SessionID())
}

// GetRedirect pops the post-login redirect cookie, falling back to def.
func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	r := ctx.Cookies(redirectCookieName)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return "/"
	}
	a.cookieDel(ctx, redirectCookieName)
	return r
}

// SetRedirect remembers the rejected URL so login can bounce back to it.
func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     redirectCookieName,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetSessionCookieName(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "An unexpected authentication error").
			WithCode(goerrors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(a.cfg.GetRejectedRoute(), statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"Route error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
