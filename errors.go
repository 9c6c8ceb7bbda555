package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthenticated     = "UNAUTHENTICATED"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeInvalidSignature    = "INVALID_TOKEN_SIGNATURE"
	TextCodeInvalidResetToken   = "INVALID_RESET_TOKEN"
	TextCodeSignatureMismatch   = "PAYMENT_SIGNATURE_MISMATCH"
	TextCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeEmailExists         = "EMAIL_EXISTS"
	TextCodeTooManyAttempts     = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeAdminCannotPurchase = "ADMIN_CANNOT_PURCHASE"
)

// ErrUnauthenticated is returned when a request carries no usable credential.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated identity fails a role or
// subscription check.
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a session token cannot be decoded.
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSignature is returned when a session token fails MAC verification.
var ErrInvalidSignature = errors.New("session token signature invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidSignature).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidResetToken covers every reset-token failure: digest mismatch,
// expiry, and already-consumed tokens. Deliberately undifferentiated so a
// caller cannot learn which part failed.
var ErrInvalidResetToken = errors.New("invalid or expired reset token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidResetToken).
	WithCode(errors.CodeUnauthorized)

// ErrSignatureMismatch is returned when a payment confirmation signature does
// not match the expected HMAC. Terminal for that confirmation attempt.
var ErrSignatureMismatch = errors.New("payment signature mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeSignatureMismatch).
	WithCode(errors.CodeBadRequest)

// ErrStoreUnavailable surfaces credential store failures. Always a denial,
// never a silent admit.
var ErrStoreUnavailable = errors.New("credential store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrMismatchedHashAndPassword covers both unknown-email and wrong-password
// logins so responses do not leak which accounts exist.
var ErrMismatchedHashAndPassword = errors.New("email or password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailAlreadyExists is returned when registering an email already in use.
var ErrEmailAlreadyExists = errors.New("email already exists", errors.CategoryValidation).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrTooManyLoginAttempts is returned during the login cooldown window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrAdminCannotPurchase rejects subscription purchases by ADMIN accounts.
var ErrAdminCannotPurchase = errors.New("admin cannot purchase a subscription", errors.CategoryValidation).
	WithTextCode(TextCodeAdminCannotPurchase).
	WithCode(errors.CodeBadRequest)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoEmptyString rejects empty required inputs, e.g. a blank password.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsNotFoundError reports whether the error represents a missing identity.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrIdentityNotFound) || errors.IsNotFound(err)
}

// wrapStoreError normalizes collaborator failures into ErrStoreUnavailable
// while keeping not-found results distinguishable for the caller.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsNotFound(err) {
		return err
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeStoreUnavailable {
		return err
	}
	return errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
		WithTextCode(ErrStoreUnavailable.TextCode)
}
