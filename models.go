package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role for registered accounts
	RoleUser UserRole = "USER"
	// RoleAdmin manages platform content and bypasses subscription checks
	RoleAdmin UserRole = "ADMIN"
)

// SubscriptionStatus tracks the paid-access lifecycle of an account.
type SubscriptionStatus = string

const (
	// SubscriptionNone means the account never subscribed
	SubscriptionNone SubscriptionStatus = "none"
	// SubscriptionActive grants access to subscriber-only content
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionCanceled means a previously active subscription was ended
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription pairs the provider-side identifier with its local status.
type Subscription struct {
	ID     string             `json:"id,omitempty"`
	Status SubscriptionStatus `json:"status,omitempty"`
}

// User is the user model
type User struct {
	bun.BaseModel       `bun:"table:users,alias:usr"`
	ID                  uuid.UUID          `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName            string             `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email               string             `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash        string             `bun:"password_hash" json:"-"`
	Role                UserRole           `bun:"user_role,notnull" json:"user_role,omitempty"`
	AvatarID            string             `bun:"avatar_id" json:"avatar_id,omitempty"`
	AvatarURL           string             `bun:"avatar_url" json:"avatar_url,omitempty"`
	SubscriptionID      string             `bun:"subscription_id" json:"subscription_id,omitempty"`
	SubscriptionStatus  SubscriptionStatus `bun:"subscription_status" json:"subscription_status,omitempty"`
	ResetTokenHash      *string            `bun:"reset_token_hash,nullzero" json:"-"`
	ResetTokenExpiresAt *time.Time         `bun:"reset_token_expires_at,nullzero" json:"-"`
	LoginAttempts       int                `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt      *time.Time         `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt          *time.Time         `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt           *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt           *time.Time         `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureDefaults fills role and subscription status for new records.
func (u *User) EnsureDefaults() {
	if u == nil {
		return
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.SubscriptionStatus == "" {
		u.SubscriptionStatus = SubscriptionNone
	}
	u.Email = NormalizeEmail(u.Email)
}

// Subscription returns the subscription pair for the record.
func (u *User) Subscription() Subscription {
	if u == nil {
		return Subscription{Status: SubscriptionNone}
	}
	status := u.SubscriptionStatus
	if status == "" {
		status = SubscriptionNone
	}
	return Subscription{ID: u.SubscriptionID, Status: status}
}

// HasActiveSubscription reports whether subscriber-only content is accessible.
func (u *User) HasActiveSubscription() bool {
	return u != nil && u.SubscriptionStatus == SubscriptionActive
}

// HasResetToken reports whether an unconsumed reset token is outstanding.
// The hash and expiry are an atomic pair: both set or both absent.
func (u *User) HasResetToken() bool {
	return u != nil && u.ResetTokenHash != nil && u.ResetTokenExpiresAt != nil
}

// NormalizeEmail case-folds and trims an email identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Payment records a verified payment confirmation. PaymentID is the
// provider's identifier and is unique; re-recording the same confirmation is
// a no-op.
type Payment struct {
	bun.BaseModel  `bun:"table:payments,alias:pay"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID         uuid.UUID  `bun:"user_id,notnull" json:"user_id,omitempty"`
	PaymentID      string     `bun:"payment_id,notnull,unique" json:"payment_id,omitempty"`
	SubscriptionID string     `bun:"subscription_id,notnull" json:"subscription_id,omitempty"`
	Signature      string     `bun:"signature" json:"signature,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
