package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/coursemind/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestUserProvider_VerifyIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		user := testUser("verify@example.com", "correct-password", auth.RoleUser, auth.SubscriptionActive)
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "verify@example.com", "correct-password")
		assert.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "verify@example.com", identity.Email())
		assert.Equal(t, auth.RoleUser, identity.Role())
		assert.Equal(t, auth.SubscriptionActive, identity.SubscriptionStatus())
	})

	t.Run("successful login resets the attempt counter", func(t *testing.T) {
		user := testUser("reset@example.com", "correct-password", auth.RoleUser, auth.SubscriptionNone)
		user.LoginAttempts = 3
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)

		_, err := provider.VerifyIdentity(ctx, "reset@example.com", "correct-password")
		assert.NoError(t, err)
		assert.Equal(t, 0, user.LoginAttempts)
		assert.NotNil(t, user.LoggedInAt)
	})

	t.Run("wrong password increments the attempt counter", func(t *testing.T) {
		user := testUser("attempts@example.com", "correct-password", auth.RoleUser, auth.SubscriptionNone)
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)

		_, err := provider.VerifyIdentity(ctx, "attempts@example.com", "bad-password")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
		assert.Equal(t, 1, user.LoginAttempts)
		assert.NotNil(t, user.LoginAttemptAt)
	})

	t.Run("too many attempts inside the cooldown", func(t *testing.T) {
		now := time.Now()
		user := testUser("cooldown@example.com", "correct-password", auth.RoleUser, auth.SubscriptionNone)
		user.LoginAttempts = auth.MaxLoginAttempts + 1
		user.LoginAttemptAt = &now
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)

		// even the correct password is rejected during cooldown
		_, err := provider.VerifyIdentity(ctx, "cooldown@example.com", "correct-password")
		assert.ErrorIs(t, err, auth.ErrTooManyLoginAttempts)
	})

	t.Run("cooldown expires after the window", func(t *testing.T) {
		stale := time.Now().Add(-25 * time.Hour)
		user := testUser("expired@example.com", "correct-password", auth.RoleUser, auth.SubscriptionNone)
		user.LoginAttempts = auth.MaxLoginAttempts + 1
		user.LoginAttemptAt = &stale
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)

		identity, err := provider.VerifyIdentity(ctx, "expired@example.com", "correct-password")
		assert.NoError(t, err)
		assert.NotNil(t, identity)
	})

	t.Run("unknown email", func(t *testing.T) {
		store := newMemStore()
		provider := auth.NewUserProvider(store)

		_, err := provider.VerifyIdentity(ctx, "missing@example.com", "whatever")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("invalid role fails validation", func(t *testing.T) {
		user := testUser("weird@example.com", "correct-password", "SUPERUSER", auth.SubscriptionNone)
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)

		_, err := provider.VerifyIdentity(ctx, "weird@example.com", "correct-password")
		assert.Error(t, err)
	})

	t.Run("custom validator is honored", func(t *testing.T) {
		user := testUser("custom@example.com", "correct-password", auth.RoleUser, auth.SubscriptionNone)
		store := newMemStore(user)
		provider := auth.NewUserProvider(store)
		provider.Validator = func(u *auth.User) error { return nil }

		user.Role = "SOMETHING_ELSE"
		identity, err := provider.VerifyIdentity(ctx, "custom@example.com", "correct-password")
		assert.NoError(t, err)
		assert.Equal(t, "SOMETHING_ELSE", identity.Role())
	})
}

func TestUserProvider_FindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()

	user := testUser("find@example.com", "correct-password", auth.RoleAdmin, auth.SubscriptionNone)
	store := newMemStore(user)
	provider := auth.NewUserProvider(store)

	t.Run("resolves an existing id", func(t *testing.T) {
		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
		assert.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, identity.Role())
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := provider.FindIdentityByIdentifier(ctx, "b3b720c1-0f1b-4d55-a0da-3a2ba03fdbc5")
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})
}
