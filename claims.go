package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the decoded payload of a session token: identity, role, a
// subscription snapshot taken at issue time, and the expiry window.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	SubscriptionStatus() SubscriptionStatus
	HasRole(role string) bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string             `json:"uid,omitempty"`
	UserEmail string             `json:"email,omitempty"`
	UserRole  string             `json:"role,omitempty"`
	SubStatus SubscriptionStatus `json:"sub_status,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email captured at issue time
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// SubscriptionStatus returns the subscription snapshot captured at issue
// time. Guards that need the live status must re-fetch from the store.
func (c *JWTClaims) SubscriptionStatus() SubscriptionStatus {
	if c.SubStatus == "" {
		return SubscriptionNone
	}
	return c.SubStatus
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAdmin reports whether the claims carry the ADMIN role
func (c *JWTClaims) IsAdmin() bool {
	return c.UserRole == RoleAdmin
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
