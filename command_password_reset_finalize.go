package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// FinalizePasswordResetHandler consumes a reset token and sets the new
// password. Token consumption is a single conditional store update, so a
// token can only ever be spent once even under concurrent requests.
type FinalizePasswordResetHandler struct {
	store        CredentialStore
	hashCost     int
	activitySink ActivitySink
	logger       Logger
}

func NewFinalizePasswordResetHandler(store CredentialStore, hashCost int) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		store:        store,
		hashCost:     hashCost,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event PasswordResetFinalizeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event PasswordResetFinalizeMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.store.FindByEmail(ctx, NormalizeEmail(event.Email))
	if err != nil {
		if IsNotFoundError(err) {
			return ErrInvalidResetToken
		}
		return wrapStoreError(err)
	}

	if err := VerifyResetSecret(event.Token, user.ResetTokenHash, user.ResetTokenExpiresAt); err != nil {
		return err
	}

	hash, err := HashPasswordWithCost(event.Password, h.hashCost)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	// conditional on the token fields still being set; a concurrent consume
	// that lost the race surfaces as ErrInvalidResetToken
	if err := h.store.ConsumeResetToken(ctx, user.ID, hash); err != nil {
		if goerrors.Is(err, ErrInvalidResetToken) || IsNotFoundError(err) {
			return ErrInvalidResetToken
		}
		return wrapStoreError(err)
	}

	h.recordActivity(ctx, user)

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, user *User) {
	sink := normalizeActivitySink(h.activitySink)
	event := ActivityEvent{
		EventType:  ActivityEventPasswordResetSuccess,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
