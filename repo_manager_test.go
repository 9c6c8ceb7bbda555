package auth_test

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/coursemind/go-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens an in memory sqlite database and applies the embedded
// migrations.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	migrations := auth.GetMigrationsFS()
	var ups []string
	err = fs.WalkDir(migrations, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".up.sql") {
			ups = append(ups, path)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(ups)

	for _, path := range ups {
		contents, err := fs.ReadFile(migrations, path)
		require.NoError(t, err)
		_, err = db.ExecContext(context.Background(), string(contents))
		require.NoError(t, err, "migration %s", path)
	}

	return db
}

func seedStoredUser(t *testing.T, store auth.CredentialStore, email string) *auth.User {
	t.Helper()
	user, err := store.Create(context.Background(), &auth.User{
		FullName:     "Stored Account",
		Email:        email,
		PasswordHash: mustHash("pwd123456"),
	})
	require.NoError(t, err)
	return user
}

func TestRepositoryManager_Users(t *testing.T) {
	ctx := context.Background()
	store := auth.NewRepositoryManager(newTestDB(t))

	t.Run("create applies defaults", func(t *testing.T) {
		user := seedStoredUser(t, store, "Created@Example.com")
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "created@example.com", user.Email)
		assert.Equal(t, auth.RoleUser, user.Role)
		assert.Equal(t, auth.SubscriptionNone, user.SubscriptionStatus)
	})

	t.Run("find by email normalizes", func(t *testing.T) {
		seedStoredUser(t, store, "lookup@example.com")

		found, err := store.FindByEmail(ctx, "  LOOKUP@example.COM ")
		assert.NoError(t, err)
		assert.Equal(t, "lookup@example.com", found.Email)

		_, err = store.FindByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("find by id rejects non uuid input", func(t *testing.T) {
		user := seedStoredUser(t, store, "byid@example.com")

		found, err := store.FindByID(ctx, user.ID.String())
		assert.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		_, err = store.FindByID(ctx, "1 OR 1=1")
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	})

	t.Run("login tracking", func(t *testing.T) {
		user := seedStoredUser(t, store, "tracking@example.com")

		require.NoError(t, store.TrackAttemptedLogin(ctx, user))
		require.NoError(t, store.TrackAttemptedLogin(ctx, &auth.User{ID: user.ID, LoginAttempts: 1}))

		found, err := store.FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, 2, found.LoginAttempts)
		assert.NotNil(t, found.LoginAttemptAt)

		require.NoError(t, store.TrackSuccessfulLogin(ctx, found))

		found, err = store.FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, 0, found.LoginAttempts)
		assert.Nil(t, found.LoginAttemptAt)
		assert.NotNil(t, found.LoggedInAt)
	})

	t.Run("subscription update", func(t *testing.T) {
		user := seedStoredUser(t, store, "subscribed@example.com")

		require.NoError(t, store.UpdateSubscription(ctx, user.ID, "sub_sql", auth.SubscriptionActive))

		found, err := store.FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "sub_sql", found.SubscriptionID)
		assert.Equal(t, auth.SubscriptionActive, found.SubscriptionStatus)
	})
}

func TestRepositoryManager_ResetTokens(t *testing.T) {
	ctx := context.Background()
	store := auth.NewRepositoryManager(newTestDB(t))

	t.Run("set and consume", func(t *testing.T) {
		user := seedStoredUser(t, store, "consume@example.com")
		expiresAt := time.Now().Add(time.Minute * 15)

		require.NoError(t, store.SetResetToken(ctx, user.ID, "digest-1", expiresAt))

		found, err := store.FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		require.NotNil(t, found.ResetTokenHash)
		assert.Equal(t, "digest-1", *found.ResetTokenHash)

		newHash := mustHash("replacement-pass")
		require.NoError(t, store.ConsumeResetToken(ctx, user.ID, newHash))

		found, err = store.FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Nil(t, found.ResetTokenHash)
		assert.Nil(t, found.ResetTokenExpiresAt)
		assert.Equal(t, newHash, found.PasswordHash)
	})

	t.Run("consume is single use", func(t *testing.T) {
		user := seedStoredUser(t, store, "singleuse@example.com")
		require.NoError(t, store.SetResetToken(ctx, user.ID, "digest-2", time.Now().Add(time.Minute)))

		require.NoError(t, store.ConsumeResetToken(ctx, user.ID, mustHash("first")))
		assert.ErrorIs(t, store.ConsumeResetToken(ctx, user.ID, mustHash("second")), auth.ErrInvalidResetToken)
	})

	t.Run("consume without an outstanding token", func(t *testing.T) {
		user := seedStoredUser(t, store, "notoken@example.com")
		assert.ErrorIs(t, store.ConsumeResetToken(ctx, user.ID, mustHash("whatever")), auth.ErrInvalidResetToken)
	})

	t.Run("clear removes the token", func(t *testing.T) {
		user := seedStoredUser(t, store, "cleared@example.com")
		require.NoError(t, store.SetResetToken(ctx, user.ID, "digest-3", time.Now().Add(time.Minute)))
		require.NoError(t, store.ClearResetToken(ctx, user.ID))

		assert.ErrorIs(t, store.ConsumeResetToken(ctx, user.ID, mustHash("whatever")), auth.ErrInvalidResetToken)
	})
}

func TestRepositoryManager_Payments(t *testing.T) {
	ctx := context.Background()
	store := auth.NewRepositoryManager(newTestDB(t))
	user := seedStoredUser(t, store, "payments@example.com")

	payment := &auth.Payment{
		UserID:         user.ID,
		PaymentID:      "pay_sql_1",
		SubscriptionID: "sub_sql_1",
	}

	recorded, err := store.RecordPayment(ctx, payment)
	require.NoError(t, err)
	assert.True(t, recorded)

	// replaying the same provider payment id inserts nothing
	replay := &auth.Payment{
		UserID:         user.ID,
		PaymentID:      "pay_sql_1",
		SubscriptionID: "sub_sql_1",
	}
	recorded, err = store.RecordPayment(ctx, replay)
	require.NoError(t, err)
	assert.False(t, recorded)

	recorded, err = store.RecordPayment(ctx, &auth.Payment{
		UserID:         user.ID,
		PaymentID:      "pay_sql_2",
		SubscriptionID: "sub_sql_1",
	})
	require.NoError(t, err)
	assert.True(t, recorded)
}

func TestRepositoryManager_Validate(t *testing.T) {
	store := auth.NewRepositoryManager(newTestDB(t))
	assert.NoError(t, store.Validate())
	assert.NotNil(t, store.Users())
	assert.NotNil(t, store.Payments())
}
