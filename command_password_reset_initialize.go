package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetResponse struct {
	Email     string
	ExpiresAt time.Time
	Success   bool
}

// InitializePasswordResetHandler mints a reset token, stores its digest, and
// mails the secret to the account holder. Unknown emails produce the same
// successful response as known ones so the endpoint cannot be used to probe
// for accounts.
type InitializePasswordResetHandler struct {
	store        CredentialStore
	messenger    Messenger
	window       time.Duration
	activitySink ActivitySink
	logger       Logger
}

func NewInitializePasswordResetHandler(store CredentialStore, messenger Messenger, window time.Duration) *InitializePasswordResetHandler {
	if window <= 0 {
		window = DefaultResetTokenWindow
	}
	return &InitializePasswordResetHandler{
		store:        store,
		messenger:    messenger,
		window:       window,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event PasswordResetInitMessage) (*InitializePasswordResetResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event PasswordResetInitMessage) (*InitializePasswordResetResponse, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	user, err := h.store.FindByEmail(ctx, email)
	if err != nil {
		if IsNotFoundError(err) {
			// same response as the happy path
			return &InitializePasswordResetResponse{Email: email, Success: true}, nil
		}
		return nil, wrapStoreError(err)
	}

	token, err := GenerateResetToken(h.window)
	if err != nil {
		return nil, err
	}

	if err := h.store.SetResetToken(ctx, user.ID, token.Digest, token.ExpiresAt); err != nil {
		return nil, wrapStoreError(err)
	}

	subject := "Reset your password"
	body := fmt.Sprintf("Use this token to reset your password: %s\nIt expires at %s.", token.Secret, token.ExpiresAt.Format(time.RFC1123))

	if err := h.messenger.Send(ctx, user.Email, subject, body); err != nil {
		h.logger.Error("password reset email delivery failed", "error", err)
		// the token is unusable if the user never received the secret
		if clearErr := h.store.ClearResetToken(ctx, user.ID); clearErr != nil {
			h.logger.Error("failed to clear reset token after email failure", "error", clearErr)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver password reset email")
	}

	h.recordActivity(ctx, user)

	return &InitializePasswordResetResponse{
		Email:     email,
		ExpiresAt: token.ExpiresAt,
		Success:   true,
	}, nil
}

func (h *InitializePasswordResetHandler) recordActivity(ctx context.Context, user *User) {
	sink := normalizeActivitySink(h.activitySink)
	event := ActivityEvent{
		EventType:  ActivityEventPasswordResetRequest,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
