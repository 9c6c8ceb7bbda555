package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/coursemind/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

// seedResetToken mints a token and stores its digest on the user, returning
// the secret the account holder would have received by email.
func seedResetToken(t *testing.T, user *auth.User, window time.Duration) string {
	t.Helper()
	token, err := auth.GenerateResetToken(window)
	if err != nil {
		t.Fatalf("generate reset token: %v", err)
	}
	user.ResetTokenHash = &token.Digest
	user.ResetTokenExpiresAt = &token.ExpiresAt
	return token.Secret
}

func TestFinalizePasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the new password and spends the token", func(t *testing.T) {
		user := testUser("finalize@example.com", "old-password", auth.RoleUser, auth.SubscriptionNone)
		secret := seedResetToken(t, user, time.Minute*15)
		store := newMemStore(user)
		sink := &captureSink{}

		handler := auth.NewFinalizePasswordResetHandler(store, testHashCost).WithActivitySink(sink)

		err := handler.Execute(ctx, auth.PasswordResetFinalizeMessage{
			Email:    "finalize@example.com",
			Token:    secret,
			Password: "brand-new-password",
		})
		assert.NoError(t, err)

		assert.NoError(t, auth.ComparePasswordAndHash("brand-new-password", user.PasswordHash))
		assert.Error(t, auth.ComparePasswordAndHash("old-password", user.PasswordHash))
		assert.Nil(t, user.ResetTokenHash)
		assert.Contains(t, sink.Types(), auth.ActivityEventPasswordResetSuccess)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		user := testUser("wrong@example.com", "old-password", auth.RoleUser, auth.SubscriptionNone)
		seedResetToken(t, user, time.Minute*15)
		store := newMemStore(user)

		handler := auth.NewFinalizePasswordResetHandler(store, testHashCost)

		err := handler.Execute(ctx, auth.PasswordResetFinalizeMessage{
			Email:    "wrong@example.com",
			Token:    "definitely-not-the-secret",
			Password: "brand-new-password",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
		assert.NoError(t, auth.ComparePasswordAndHash("old-password", user.PasswordHash))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		user := testUser("expired@example.com", "old-password", auth.RoleUser, auth.SubscriptionNone)
		secret := seedResetToken(t, user, -time.Minute)
		store := newMemStore(user)

		handler := auth.NewFinalizePasswordResetHandler(store, testHashCost)

		err := handler.Execute(ctx, auth.PasswordResetFinalizeMessage{
			Email:    "expired@example.com",
			Token:    secret,
			Password: "brand-new-password",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
	})

	t.Run("a token cannot be spent twice", func(t *testing.T) {
		user := testUser("twice@example.com", "old-password", auth.RoleUser, auth.SubscriptionNone)
		secret := seedResetToken(t, user, time.Minute*15)
		store := newMemStore(user)

		handler := auth.NewFinalizePasswordResetHandler(store, testHashCost)

		msg := auth.PasswordResetFinalizeMessage{
			Email:    "twice@example.com",
			Token:    secret,
			Password: "brand-new-password",
		}
		assert.NoError(t, handler.Execute(ctx, msg))
		assert.ErrorIs(t, handler.Execute(ctx, msg), auth.ErrInvalidResetToken)
	})

	t.Run("unknown email maps to the same invalid token error", func(t *testing.T) {
		handler := auth.NewFinalizePasswordResetHandler(newMemStore(), testHashCost)

		err := handler.Execute(ctx, auth.PasswordResetFinalizeMessage{
			Email:    "ghost@example.com",
			Token:    "whatever",
			Password: "brand-new-password",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
	})

	t.Run("store failure surfaces as unavailable", func(t *testing.T) {
		user := testUser("unavailable@example.com", "old-password", auth.RoleUser, auth.SubscriptionNone)
		seedResetToken(t, user, time.Minute*15)
		store := newMemStore(user)
		store.failWith = goerrors.New("connection refused", goerrors.CategoryOperation)

		handler := auth.NewFinalizePasswordResetHandler(store, testHashCost)

		err := handler.Execute(ctx, auth.PasswordResetFinalizeMessage{
			Email:    "unavailable@example.com",
			Token:    "whatever",
			Password: "brand-new-password",
		})
		assert.Error(t, err)

		var richErr *goerrors.Error
		assert.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, auth.TextCodeStoreUnavailable, richErr.TextCode)
	})
}
