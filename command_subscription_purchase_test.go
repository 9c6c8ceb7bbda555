package auth_test

import (
	"context"
	"testing"

	"github.com/coursemind/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPurchaseSubscription(t *testing.T) {
	ctx := context.Background()

	t.Run("records the provider subscription against the user", func(t *testing.T) {
		user := testUser("buyer@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		store := newMemStore(user)
		sink := &captureSink{}

		provider := &MockSubscriptionProvider{}
		provider.On("CreateSubscription", mock.Anything, user.ID.String()).
			Return(auth.Subscription{ID: "sub_new"}, nil)

		handler := auth.NewPurchaseSubscriptionHandler(store, provider, nil).WithActivitySink(sink)

		res, err := handler.Execute(ctx, auth.SubscriptionPurchaseMessage{UserID: user.ID.String()})
		assert.NoError(t, err)
		assert.Equal(t, "sub_new", res.Subscription.ID)

		// the provider id is stored but the status stays where it was until
		// the payment callback confirms
		assert.Equal(t, "sub_new", user.SubscriptionID)
		assert.Equal(t, auth.SubscriptionNone, user.SubscriptionStatus)

		assert.Contains(t, sink.Types(), auth.ActivityEventSubscriptionPurchased)
		provider.AssertExpectations(t)
	})

	t.Run("admins cannot purchase", func(t *testing.T) {
		admin := testUser("admin@example.com", "pwd123456", auth.RoleAdmin, auth.SubscriptionNone)
		store := newMemStore(admin)
		provider := &MockSubscriptionProvider{}

		handler := auth.NewPurchaseSubscriptionHandler(store, provider, nil)

		_, err := handler.Execute(ctx, auth.SubscriptionPurchaseMessage{UserID: admin.ID.String()})
		assert.ErrorIs(t, err, auth.ErrAdminCannotPurchase)

		provider.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		handler := auth.NewPurchaseSubscriptionHandler(newMemStore(), &MockSubscriptionProvider{}, nil)
		_, err := handler.Execute(ctx, auth.SubscriptionPurchaseMessage{UserID: "c0ffee00-0000-0000-0000-000000000000"})
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("provider rejection does not touch the store", func(t *testing.T) {
		user := testUser("declined@example.com", "pwd123456", auth.RoleUser, auth.SubscriptionNone)
		store := newMemStore(user)

		provider := &MockSubscriptionProvider{}
		provider.On("CreateSubscription", mock.Anything, user.ID.String()).
			Return(auth.Subscription{}, goerrors.New("card declined", goerrors.CategoryOperation))

		handler := auth.NewPurchaseSubscriptionHandler(store, provider, nil)

		_, err := handler.Execute(ctx, auth.SubscriptionPurchaseMessage{UserID: user.ID.String()})
		assert.Error(t, err)
		assert.Empty(t, user.SubscriptionID)
	})

	t.Run("invalid payload", func(t *testing.T) {
		handler := auth.NewPurchaseSubscriptionHandler(newMemStore(), &MockSubscriptionProvider{}, nil)
		_, err := handler.Execute(ctx, auth.SubscriptionPurchaseMessage{})
		assert.Error(t, err)
	})
}
