package auth_test

import (
	"context"
	"testing"

	"github.com/coursemind/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const paymentSecret = "payment-webhook-secret"

// flakySubscriptionStore fails a configurable number of subscription
// updates before delegating to the in-memory store.
type flakySubscriptionStore struct {
	*memStore
	updateFailures int
}

func (s *flakySubscriptionStore) UpdateSubscription(ctx context.Context, id uuid.UUID, subscriptionID string, status auth.SubscriptionStatus) error {
	if s.updateFailures > 0 {
		s.updateFailures--
		return goerrors.New("write timeout", goerrors.CategoryOperation)
	}
	return s.memStore.UpdateSubscription(ctx, id, subscriptionID, status)
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()
	verifier := auth.NewPaymentVerifier(paymentSecret)

	t.Run("valid confirmation activates the subscription", func(t *testing.T) {
		user := testUser("payer@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		user.SubscriptionID = "sub_pending"
		store := newMemStore(user)
		sink := &captureSink{}

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil).WithActivitySink(sink)

		err := handler.Execute(ctx, auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_1",
			SubscriptionID: "sub_pending",
			Signature:      verifier.Sign("pay_1", "sub_pending"),
		})
		assert.NoError(t, err)
		assert.Equal(t, auth.SubscriptionActive, user.SubscriptionStatus)
		assert.Contains(t, sink.Types(), auth.ActivityEventPaymentVerified)
	})

	t.Run("signature is checked against the stored subscription id", func(t *testing.T) {
		user := testUser("swapped@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		user.SubscriptionID = "sub_mine"
		store := newMemStore(user)
		sink := &captureSink{}

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil).WithActivitySink(sink)

		// signature is valid for sub_other, but that is not this user's
		// subscription
		err := handler.Execute(ctx, auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_2",
			SubscriptionID: "sub_other",
			Signature:      verifier.Sign("pay_2", "sub_other"),
		})
		assert.ErrorIs(t, err, auth.ErrSignatureMismatch)
		assert.Equal(t, auth.SubscriptionNone, user.SubscriptionStatus)
		assert.Contains(t, sink.Types(), auth.ActivityEventPaymentRejected)
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		user := testUser("forged@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		user.SubscriptionID = "sub_forge"
		store := newMemStore(user)
		sink := &captureSink{}

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil).WithActivitySink(sink)

		err := handler.Execute(ctx, auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_3",
			SubscriptionID: "sub_forge",
			Signature:      verifier.Sign("pay_3", "sub_forge") + "00",
		})
		assert.ErrorIs(t, err, auth.ErrSignatureMismatch)
		assert.Equal(t, auth.SubscriptionNone, user.SubscriptionStatus)
		assert.Contains(t, sink.Types(), auth.ActivityEventPaymentRejected)
	})

	t.Run("no pending subscription rejects any confirmation", func(t *testing.T) {
		user := testUser("nosub@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		store := newMemStore(user)

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil)

		err := handler.Execute(ctx, auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_4",
			SubscriptionID: "sub_none",
			Signature:      verifier.Sign("pay_4", "sub_none"),
		})
		assert.ErrorIs(t, err, auth.ErrSignatureMismatch)
	})

	t.Run("replayed confirmation is a no-op", func(t *testing.T) {
		user := testUser("replay@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		user.SubscriptionID = "sub_replay"
		store := newMemStore(user)
		sink := &captureSink{}

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil).WithActivitySink(sink)

		msg := auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_5",
			SubscriptionID: "sub_replay",
			Signature:      verifier.Sign("pay_5", "sub_replay"),
		}
		assert.NoError(t, handler.Execute(ctx, msg))

		// simulate the user canceling after the first confirmation, then the
		// provider replaying the callback
		user.SubscriptionStatus = auth.SubscriptionCanceled
		assert.NoError(t, handler.Execute(ctx, msg))
		assert.Equal(t, auth.SubscriptionCanceled, user.SubscriptionStatus)

		verified := 0
		for _, typ := range sink.Types() {
			if typ == auth.ActivityEventPaymentVerified {
				verified++
			}
		}
		assert.Equal(t, 1, verified)
	})

	t.Run("redelivered confirmation resumes a failed activation", func(t *testing.T) {
		user := testUser("retry@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		user.SubscriptionID = "sub_retry"
		store := &flakySubscriptionStore{memStore: newMemStore(user), updateFailures: 1}
		sink := &captureSink{}

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil).WithActivitySink(sink)

		msg := auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_7",
			SubscriptionID: "sub_retry",
			Signature:      verifier.Sign("pay_7", "sub_retry"),
		}

		// the payment is recorded but the status flip fails, so the
		// provider redelivers the callback
		assert.Error(t, handler.Execute(ctx, msg))
		assert.Equal(t, auth.SubscriptionNone, user.SubscriptionStatus)

		assert.NoError(t, handler.Execute(ctx, msg))
		assert.Equal(t, auth.SubscriptionActive, user.SubscriptionStatus)
		assert.Contains(t, sink.Types(), auth.ActivityEventPaymentVerified)
	})

	t.Run("store failure surfaces as unavailable", func(t *testing.T) {
		user := testUser("flaky@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		store := newMemStore(user)
		store.failWith = goerrors.New("connection refused", goerrors.CategoryOperation)

		handler := auth.NewVerifyPaymentHandler(store, verifier, nil)

		err := handler.Execute(ctx, auth.PaymentVerifyMessage{
			UserID:         user.ID.String(),
			PaymentID:      "pay_6",
			SubscriptionID: "sub_flaky",
			Signature:      verifier.Sign("pay_6", "sub_flaky"),
		})
		assert.Error(t, err)

		var richErr *goerrors.Error
		assert.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.TextCodeStoreUnavailable, richErr.TextCode)
	})
}
