package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CancelSubscriptionHandler cancels a user's subscription with the provider
// and moves the local record to canceled.
type CancelSubscriptionHandler struct {
	store        CredentialStore
	provider     SubscriptionProvider
	machine      SubscriptionStateMachine
	activitySink ActivitySink
	logger       Logger
}

func NewCancelSubscriptionHandler(store CredentialStore, provider SubscriptionProvider, machine SubscriptionStateMachine) *CancelSubscriptionHandler {
	if machine == nil {
		machine = NewSubscriptionStateMachine(store)
	}
	return &CancelSubscriptionHandler{
		store:        store,
		provider:     provider,
		machine:      machine,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *CancelSubscriptionHandler) WithLogger(logger Logger) *CancelSubscriptionHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CancelSubscriptionHandler) WithActivitySink(sink ActivitySink) *CancelSubscriptionHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *CancelSubscriptionHandler) Execute(ctx context.Context, event SubscriptionCancelMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during subscription cancellation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CancelSubscriptionHandler) execute(ctx context.Context, event SubscriptionCancelMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid subscription cancel payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.store.FindByID(ctx, event.UserID)
	if err != nil {
		if IsNotFoundError(err) {
			return ErrIdentityNotFound
		}
		return wrapStoreError(err)
	}

	if user.SubscriptionID == "" || user.SubscriptionStatus != SubscriptionActive {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from": user.SubscriptionStatus,
			"to":   SubscriptionCanceled,
		})
	}

	if err := h.provider.CancelSubscription(ctx, user.SubscriptionID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "subscription provider rejected the cancellation")
	}

	actor := ActorRef{ID: user.ID.String(), Type: "user"}
	if _, err := h.machine.Transition(ctx, actor, user, user.SubscriptionID, SubscriptionCanceled); err != nil {
		return err
	}

	h.recordActivity(ctx, user)

	return nil
}

func (h *CancelSubscriptionHandler) recordActivity(ctx context.Context, user *User) {
	sink := normalizeActivitySink(h.activitySink)
	event := ActivityEvent{
		EventType:  ActivityEventSubscriptionCanceled,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		Metadata:   map[string]any{"subscription_id": user.SubscriptionID},
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
