package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SubscriptionPurchaseResponse struct {
	Subscription Subscription
}

// PurchaseSubscriptionHandler creates a subscription with the payment
// provider and records it against the user. Admin accounts are rejected
// before any provider call is made.
type PurchaseSubscriptionHandler struct {
	store        CredentialStore
	provider     SubscriptionProvider
	machine      SubscriptionStateMachine
	activitySink ActivitySink
	logger       Logger
}

func NewPurchaseSubscriptionHandler(store CredentialStore, provider SubscriptionProvider, machine SubscriptionStateMachine) *PurchaseSubscriptionHandler {
	if machine == nil {
		machine = NewSubscriptionStateMachine(store)
	}
	return &PurchaseSubscriptionHandler{
		store:        store,
		provider:     provider,
		machine:      machine,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *PurchaseSubscriptionHandler) WithLogger(logger Logger) *PurchaseSubscriptionHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *PurchaseSubscriptionHandler) WithActivitySink(sink ActivitySink) *PurchaseSubscriptionHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *PurchaseSubscriptionHandler) Execute(ctx context.Context, event SubscriptionPurchaseMessage) (*SubscriptionPurchaseResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during subscription purchase",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *PurchaseSubscriptionHandler) execute(ctx context.Context, event SubscriptionPurchaseMessage) (*SubscriptionPurchaseResponse, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid subscription purchase payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.store.FindByID(ctx, event.UserID)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, wrapStoreError(err)
	}

	if user.Role == RoleAdmin {
		return nil, ErrAdminCannotPurchase
	}

	sub, err := h.provider.CreateSubscription(ctx, user.ID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "subscription provider rejected the purchase")
	}

	// the subscription stays pending until the payment confirmation callback
	// verifies the provider signature; we only record the provider id here
	if err := h.store.UpdateSubscription(ctx, user.ID, sub.ID, user.SubscriptionStatus); err != nil {
		return nil, wrapStoreError(err)
	}

	h.recordActivity(ctx, user, sub)

	return &SubscriptionPurchaseResponse{Subscription: sub}, nil
}

func (h *PurchaseSubscriptionHandler) recordActivity(ctx context.Context, user *User, sub Subscription) {
	sink := normalizeActivitySink(h.activitySink)
	event := ActivityEvent{
		EventType:  ActivityEventSubscriptionPurchased,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:     user.ID.String(),
		Metadata:   map[string]any{"subscription_id": sub.ID},
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
