package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginRequest is the payload for password logins.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterUserMessage is the payload for new account registration.
type RegisterUserMessage struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	// UseHashid derives the account id from the email address so repeated
	// imports of the same dataset produce stable ids.
	UseHashid bool `json:"use_hashid,omitempty" form:"use_hashid"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will validate the payload
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(5, 50)),
		validation.Field(&e.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

// PasswordResetInitMessage starts a password reset for an email address.
type PasswordResetInitMessage struct {
	Email string `json:"email" form:"email"`
}

func (e PasswordResetInitMessage) Type() string { return "auth.password.reset.init" }

// Validate will validate the payload
func (e PasswordResetInitMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// PasswordResetFinalizeMessage completes a password reset with the token the
// user received out of band.
type PasswordResetFinalizeMessage struct {
	Email    string `json:"email" form:"email"`
	Token    string `json:"token" form:"token"`
	Password string `json:"password" form:"password"`
}

func (e PasswordResetFinalizeMessage) Type() string { return "auth.password.reset.finalize" }

// Validate will validate the payload
func (e PasswordResetFinalizeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
	)
}

// SubscriptionPurchaseMessage requests a new subscription for a user.
type SubscriptionPurchaseMessage struct {
	UserID string `json:"user_id" form:"user_id"`
}

func (e SubscriptionPurchaseMessage) Type() string { return "subscription.purchase" }

// Validate will validate the payload
func (e SubscriptionPurchaseMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required, is.UUID),
	)
}

// SubscriptionCancelMessage requests cancellation of a user's subscription.
type SubscriptionCancelMessage struct {
	UserID string `json:"user_id" form:"user_id"`
}

func (e SubscriptionCancelMessage) Type() string { return "subscription.cancel" }

// Validate will validate the payload
func (e SubscriptionCancelMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required, is.UUID),
	)
}

// PaymentVerifyMessage carries a provider payment confirmation callback.
type PaymentVerifyMessage struct {
	UserID         string `json:"user_id" form:"user_id"`
	PaymentID      string `json:"payment_id" form:"payment_id"`
	SubscriptionID string `json:"subscription_id" form:"subscription_id"`
	Signature      string `json:"signature" form:"signature"`
}

func (e PaymentVerifyMessage) Type() string { return "payment.verify" }

// Validate will validate the payload
func (e PaymentVerifyMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required, is.UUID),
		validation.Field(&e.PaymentID, validation.Required),
		validation.Field(&e.SubscriptionID, validation.Required),
		validation.Field(&e.Signature, validation.Required),
	)
}
