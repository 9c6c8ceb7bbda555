package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/coursemind/go-auth/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// rejectedRouteCookie remembers where an unauthenticated request was headed
// so we can send the user back after login.
const rejectedRouteCookie = "rejected_route"

type RouteAuthenticator struct {
	auth             Authenticator
	validator        TokenValidator
	store            CredentialStore
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenTTL() > 0 {
		cookieDuration = cfg.GetTokenTTL()
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		validator:      auther.TokenService(),
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// WithCredentialStore enables live subscription checks on protected routes.
func (a *RouteAuthenticator) WithCredentialStore(store CredentialStore) *RouteAuthenticator {
	a.store = store
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// ProtectedRoute admits authenticated requests. Pass roles to restrict the
// route, and use ProtectedSubscriberRoute for subscriber-only content.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error, roles ...UserRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:   errorHandler,
			TokenValidator: routerTokenValidator{a.validator},
			AllowedRoles:   roles,
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
		})(hf)
	}
}

// ProtectedSubscriberRoute additionally requires an active subscription,
// re-read from the store on every request. Admin tokens bypass the
// subscription gate but not the role gate.
func (a *RouteAuthenticator) ProtectedSubscriberRoute(cfg Config, errorHandler func(router.Context, error) error, roles ...UserRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:              errorHandler,
			TokenValidator:            routerTokenValidator{a.validator},
			AllowedRoles:              roles,
			RequireActiveSubscription: true,
			SubscriptionChecker:       SubscriptionCheckerFromStore(a.store),
			AuthScheme:                cfg.GetAuthScheme(),
			ContextKey:                cfg.GetContextKey(),
			TokenLookup:               cfg.GetTokenLookup(),
		})(hf)
	}
}

func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginRequest) error {
	token, err := a.auth.Login(ctx.Context(), payload.Identifier, payload.Password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return nil
}

func (a *RouteAuthenticator) Register(ctx router.Context, payload RegisterUserMessage) error {
	token, err := a.auth.Register(ctx.Context(), payload)
	if err != nil {
		a.Logger.Error("Register error: %s", err)
		return err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	r := ctx.Cookies(rejectedRouteCookie)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRouteCookie)
	return r
}

func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	a.Logger.Info("Setting redirect cookie", "key", rejectedRouteCookie, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRouteCookie,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
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
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
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
	return c.Redirect("/login", statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		status := richErr.Code
		if status < 400 || status > 599 {
			status = router.StatusInternalServerError
		}
		return c.JSON(status, map[string]string{
			"error": richErr.Message,
		})
	}
}

// routerTokenValidator bridges the auth package validator to the middleware's
// mirrored interface.
type routerTokenValidator struct {
	v TokenValidator
}

func (r routerTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := r.v.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SubscriptionCheckerFromStore adapts the subscription guard for use by the
// JWT middleware.
func SubscriptionCheckerFromStore(store CredentialStore) jwtware.SubscriptionChecker {
	if store == nil {
		return func(ctx context.Context, claims jwtware.AuthClaims) error {
			return ErrStoreUnavailable
		}
	}

	guard := SubscriptionGuard(store)
	return func(ctx context.Context, claims jwtware.AuthClaims) error {
		ac, ok := claims.(AuthClaims)
		if !ok {
			return ErrUnauthenticated
		}
		return guard.Check(ctx, ac)
	}
}
