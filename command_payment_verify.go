package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// VerifyPaymentHandler processes provider payment confirmation callbacks.
// The signature is checked before anything is persisted; a mismatch is
// terminal for that confirmation attempt. Confirmations are deduplicated on
// the provider payment id, so replays of a fully processed callback are
// no-ops.
type VerifyPaymentHandler struct {
	store        CredentialStore
	verifier     *PaymentVerifier
	machine      SubscriptionStateMachine
	activitySink ActivitySink
	logger       Logger
}

func NewVerifyPaymentHandler(store CredentialStore, verifier *PaymentVerifier, machine SubscriptionStateMachine) *VerifyPaymentHandler {
	if machine == nil {
		machine = NewSubscriptionStateMachine(store)
	}
	return &VerifyPaymentHandler{
		store:        store,
		verifier:     verifier,
		machine:      machine,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *VerifyPaymentHandler) WithLogger(logger Logger) *VerifyPaymentHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyPaymentHandler) WithActivitySink(sink ActivitySink) *VerifyPaymentHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *VerifyPaymentHandler) Execute(ctx context.Context, event PaymentVerifyMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during payment verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyPaymentHandler) execute(ctx context.Context, event PaymentVerifyMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid payment verification payload")
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

	// the signature must cover the subscription we created for this user,
	// not whatever subscription id the caller put in the payload
	if user.SubscriptionID == "" || user.SubscriptionID != event.SubscriptionID {
		h.recordActivity(ctx, user, event, ActivityEventPaymentRejected)
		return ErrSignatureMismatch
	}

	if err := h.verifier.Verify(event.PaymentID, user.SubscriptionID, event.Signature); err != nil {
		h.recordActivity(ctx, user, event, ActivityEventPaymentRejected)
		return err
	}

	payment := &Payment{
		UserID:         user.ID,
		PaymentID:      event.PaymentID,
		SubscriptionID: user.SubscriptionID,
	}

	recorded, err := h.store.RecordPayment(ctx, payment)
	if err != nil {
		return wrapStoreError(err)
	}

	if !recorded {
		// A redelivered confirmation is a no-op unless the earlier attempt
		// recorded the payment but failed before activating the
		// subscription; a canceled subscription stays canceled.
		if user.SubscriptionStatus != SubscriptionNone {
			h.logger.Info("payment already recorded", "payment_id", event.PaymentID)
			return nil
		}
		h.logger.Info("resuming activation for recorded payment", "payment_id", event.PaymentID)
	}

	actor := ActorRef{ID: user.ID.String(), Type: "user"}
	if _, err := h.machine.Transition(ctx, actor, user, user.SubscriptionID, SubscriptionActive); err != nil {
		return err
	}

	h.recordActivity(ctx, user, event, ActivityEventPaymentVerified)

	return nil
}

func (h *VerifyPaymentHandler) recordActivity(ctx context.Context, user *User, event PaymentVerifyMessage, eventType ActivityEventType) {
	sink := normalizeActivitySink(h.activitySink)
	activity := ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{ID: user.ID.String(), Type: "user"},
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"payment_id":      event.PaymentID,
			"subscription_id": event.SubscriptionID,
		},
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, activity); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}
