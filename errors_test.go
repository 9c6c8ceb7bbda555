package auth

import (
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCategoriesAndTextCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      *errors.Error
		category errors.Category
		textCode string
	}{
		{"unauthenticated", ErrUnauthenticated, errors.CategoryAuth, TextCodeUnauthenticated},
		{"forbidden", ErrForbidden, errors.CategoryAuthz, TextCodeForbidden},
		{"token expired", ErrTokenExpired, errors.CategoryAuth, TextCodeTokenExpired},
		{"token malformed", ErrTokenMalformed, errors.CategoryAuth, TextCodeTokenMalformed},
		{"invalid signature", ErrInvalidSignature, errors.CategoryAuth, TextCodeInvalidSignature},
		{"invalid reset token", ErrInvalidResetToken, errors.CategoryAuth, TextCodeInvalidResetToken},
		{"signature mismatch", ErrSignatureMismatch, errors.CategoryAuth, TextCodeSignatureMismatch},
		{"store unavailable", ErrStoreUnavailable, errors.CategoryInternal, TextCodeStoreUnavailable},
		{"invalid credentials", ErrMismatchedHashAndPassword, errors.CategoryAuth, TextCodeInvalidCredentials},
		{"email exists", ErrEmailAlreadyExists, errors.CategoryValidation, TextCodeEmailExists},
		{"too many attempts", ErrTooManyLoginAttempts, errors.CategoryAuth, TextCodeTooManyAttempts},
		{"admin cannot purchase", ErrAdminCannotPurchase, errors.CategoryValidation, TextCodeAdminCannotPurchase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.category, tc.err.Category)
			assert.Equal(t, tc.textCode, tc.err.TextCode)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.False(t, IsTokenExpiredError(nil))
	assert.True(t, IsTokenExpiredError(ErrTokenExpired))
	assert.True(t, IsTokenExpiredError(errors.New("token is expired by 5m", errors.CategoryAuth)))
	assert.False(t, IsTokenExpiredError(ErrTokenMalformed))
}

func TestIsMalformedError(t *testing.T) {
	assert.False(t, IsMalformedError(nil))
	assert.True(t, IsMalformedError(ErrTokenMalformed))
	assert.True(t, IsMalformedError(errors.New("token is malformed: bad segments", errors.CategoryAuth)))
	assert.True(t, IsMalformedError(errors.New("missing or malformed JWT", errors.CategoryAuth)))
	assert.False(t, IsMalformedError(ErrTokenExpired))
}

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.True(t, IsNotFoundError(ErrIdentityNotFound))
	assert.False(t, IsNotFoundError(ErrStoreUnavailable))
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, wrapStoreError(nil))

	// not-found passes through untouched
	assert.Equal(t, ErrIdentityNotFound, wrapStoreError(ErrIdentityNotFound))

	// already-wrapped store errors are not double wrapped
	wrapped := wrapStoreError(errors.New("connection refused", errors.CategoryOperation))
	var richErr *errors.Error
	assert.True(t, errors.As(wrapped, &richErr))
	assert.Equal(t, TextCodeStoreUnavailable, richErr.TextCode)

	again := wrapStoreError(wrapped)
	assert.Equal(t, wrapped, again)
}
