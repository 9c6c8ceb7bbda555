package auth_test

import (
	"context"
	"testing"

	"github.com/coursemind/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	user := testUser("ctx@example.com", "secret-password", auth.RoleUser, auth.SubscriptionNone)

	t.Run("round trips a user", func(t *testing.T) {
		ctx := auth.WithContext(context.Background(), user)
		got, ok := auth.FromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, user, got)
	})

	t.Run("missing user", func(t *testing.T) {
		got, ok := auth.FromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestClaimsContext(t *testing.T) {
	user := testUser("claims-ctx@example.com", "secret-password", auth.RoleAdmin, auth.SubscriptionNone)
	claims := testClaimsFor(user)

	t.Run("round trips claims", func(t *testing.T) {
		ctx := auth.WithClaimsContext(context.Background(), claims)
		got, ok := auth.GetClaims(ctx)
		assert.True(t, ok)
		assert.Equal(t, user.ID.String(), got.UserID())
		assert.True(t, got.IsAdmin())
	})

	t.Run("missing claims", func(t *testing.T) {
		got, ok := auth.GetClaims(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("user and claims keys do not collide", func(t *testing.T) {
		ctx := auth.WithContext(context.Background(), user)
		ctx = auth.WithClaimsContext(ctx, claims)

		gotUser, ok := auth.FromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, user, gotUser)

		gotClaims, ok := auth.GetClaims(ctx)
		assert.True(t, ok)
		assert.Equal(t, claims, gotClaims)
	})
}
