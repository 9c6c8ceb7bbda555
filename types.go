package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	Register(ctx context.Context, msg RegisterUserMessage) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Email() string
	Role() string
	SubscriptionStatus() SubscriptionStatus
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetResetTokenWindow() time.Duration
	GetPasswordHashCost() int
	GetPaymentSecret() string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// CredentialStore is the persistence boundary the core depends on. Every
// method maps to a single atomic per-document operation; the store never
// holds locks across calls.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	// SetResetToken stores the digest/expiry pair, replacing any token still
	// outstanding for the user.
	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	// ConsumeResetToken sets the new password hash and clears the reset token
	// fields in one update. The update is conditional on the token fields
	// still being present; a concurrent consume that lost the race gets
	// ErrInvalidResetToken.
	ConsumeResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error

	UpdateSubscription(ctx context.Context, id uuid.UUID, subscriptionID string, status SubscriptionStatus) error
	// RecordPayment persists a payment confirmation, deduplicating on the
	// provider payment id. It reports false when the payment was already
	// recorded.
	RecordPayment(ctx context.Context, payment *Payment) (bool, error)
}

// Messenger delivers outbound notifications. Failures are recoverable from
// the caller's point of view; the core does not retry.
type Messenger interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SubscriptionProvider is the external payment provider surface the core
// consumes when purchasing or canceling subscriptions.
type SubscriptionProvider interface {
	CreateSubscription(ctx context.Context, userID string) (Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
