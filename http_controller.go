package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the mount points for the auth endpoints.
type AuthControllerRoutes struct {
	Login          string
	Logout         string
	Register       string
	PasswordReset  string
	Subscription   string
	PaymentWebhook string
}

// AuthController exposes the auth flows as JSON endpoints: login, logout,
// registration, the two password reset legs, subscription purchase and
// cancellation, and the payment confirmation webhook. Route protection is
// left to the caller so the controller can be mounted behind whatever
// middleware stack the host application uses.
type AuthController struct {
	Logger        Logger
	Store         CredentialStore
	Auther        *RouteAuthenticator
	Routes        *AuthControllerRoutes
	ResetInit     *InitializePasswordResetHandler
	ResetFinalize *FinalizePasswordResetHandler
	Purchase      *PurchaseSubscriptionHandler
	Cancel        *CancelSubscriptionHandler
	PaymentVerify *VerifyPaymentHandler
	ContextKey    string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
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

func WithControllerStore(store CredentialStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Store = store
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithResetHandlers(init *InitializePasswordResetHandler, finalize *FinalizePasswordResetHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ResetInit = init
		c.ResetFinalize = finalize
		return c
	}
}

func WithSubscriptionHandlers(purchase *PurchaseSubscriptionHandler, cancel *CancelSubscriptionHandler, payment *VerifyPaymentHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Purchase = purchase
		c.Cancel = cancel
		c.PaymentVerify = payment
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Login:          "/login",
			Logout:         "/logout",
			Register:       "/register",
			PasswordReset:  "/password-reset",
			Subscription:   "/subscription",
			PaymentWebhook: "/payments/webhook",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Store == nil {
		panic("Missing CredentialStore in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")
	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("sign-out.post")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetInit).
		SetName("pwd-reset.post")
	app.Post(controller.Routes.PasswordReset+"/confirm", controller.PasswordResetFinalize).
		SetName("pwd-reset-confirm.post")

	app.Post(controller.Routes.Subscription, controller.SubscriptionPurchase).
		SetName("subscription.purchase")
	app.Delete(controller.Routes.Subscription, controller.SubscriptionCancel).
		SetName("subscription.cancel")

	app.Post(controller.Routes.PaymentWebhook, controller.PaymentWebhook).
		SetName("payments.webhook")

	return controller
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := LoginRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.badRequest(ctx, "failed to parse login payload", err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"validation": err.Error(),
		})
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		a.Logger.Error("login failed", "identifier", payload.Identifier, "error", err)
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "invalid credentials",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]bool{"ok": true})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]bool{"ok": true})
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := RegisterUserMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return a.badRequest(ctx, "failed to parse registration payload", err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"validation": err.Error(),
		})
	}

	if err := a.Auther.Register(ctx, payload); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return ctx.JSON(http.StatusConflict, map[string]string{
				"error": "email already registered",
			})
		}
		return a.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]bool{"ok": true})
}

func (a *AuthController) PasswordResetInit(ctx router.Context) error {
	payload := PasswordResetInitMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return a.badRequest(ctx, "failed to parse reset payload", err)
	}

	res, err := a.ResetInit.Execute(ctx.Context(), payload)
	if err != nil {
		return a.handleError(ctx, err)
	}

	// The response is the same whether or not the email exists.
	return ctx.JSON(router.StatusOK, map[string]any{
		"ok":    res.Success,
		"email": res.Email,
	})
}

func (a *AuthController) PasswordResetFinalize(ctx router.Context) error {
	payload := PasswordResetFinalizeMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return a.badRequest(ctx, "failed to parse reset payload", err)
	}

	if err := a.ResetFinalize.Execute(ctx.Context(), payload); err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": "invalid or expired reset token",
			})
		}
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]bool{"ok": true})
}

func (a *AuthController) SubscriptionPurchase(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	res, err := a.Purchase.Execute(ctx.Context(), SubscriptionPurchaseMessage{
		UserID: claims.UserID(),
	})
	if err != nil {
		if errors.Is(err, ErrAdminCannotPurchase) {
			return ctx.JSON(router.StatusForbidden, map[string]string{
				"error": "admin accounts cannot purchase subscriptions",
			})
		}
		return a.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"subscription_id": res.Subscription.ID,
	})
}

func (a *AuthController) SubscriptionCancel(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	if err := a.Cancel.Execute(ctx.Context(), SubscriptionCancelMessage{
		UserID: claims.UserID(),
	}); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return ctx.JSON(http.StatusConflict, map[string]string{
				"error": "no active subscription to cancel",
			})
		}
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]bool{"ok": true})
}

// PaymentWebhook receives payment confirmations from the provider. The
// payload carries its own HMAC signature so the endpoint does not require a
// session.
func (a *AuthController) PaymentWebhook(ctx router.Context) error {
	payload := PaymentVerifyMessage{}
	if err := ctx.Bind(&payload); err != nil {
		return a.badRequest(ctx, "failed to parse payment payload", err)
	}

	if err := a.PaymentVerify.Execute(ctx.Context(), payload); err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": "payment signature mismatch",
			})
		}
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]bool{"ok": true})
}

func (a *AuthController) badRequest(ctx router.Context, msg string, err error) error {
	a.Logger.Error(msg, "error", err)
	return ctx.JSON(router.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func (a *AuthController) handleError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "unexpected server error").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Error("auth controller error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
	)

	status := richErr.Code
	if status < 400 || status > 599 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]string{
		"error": richErr.Message,
	})
}
