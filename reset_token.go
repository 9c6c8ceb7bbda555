package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultResetTokenWindow is how long a password reset token stays usable.
const DefaultResetTokenWindow = 15 * time.Minute

const resetTokenByteLen = 32

// ResetToken is the result of minting a password reset token. Secret is the
// value delivered to the user out of band; only Digest is persisted.
type ResetToken struct {
	Secret    string
	Digest    string
	ExpiresAt time.Time
}

// GenerateResetToken mints a single use reset token. The secret never touches
// storage, only its SHA-256 digest does.
func GenerateResetToken(window time.Duration) (*ResetToken, error) {
	if window <= 0 {
		window = DefaultResetTokenWindow
	}

	buf := make([]byte, resetTokenByteLen)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate reset token")
	}

	secret := hex.EncodeToString(buf)

	return &ResetToken{
		Secret:    secret,
		Digest:    HashResetSecret(secret),
		ExpiresAt: time.Now().Add(window),
	}, nil
}

// HashResetSecret returns the hex encoded SHA-256 digest of a reset secret.
func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyResetSecret checks a presented secret against the stored digest and
// expiry. Every failure resolves to the same ErrInvalidResetToken so callers
// cannot tell a wrong secret from an expired one.
func VerifyResetSecret(secret string, storedDigest *string, storedExpiresAt *time.Time) error {
	if secret == "" || storedDigest == nil || storedExpiresAt == nil {
		return ErrInvalidResetToken
	}

	digest := HashResetSecret(secret)
	if !hmac.Equal([]byte(digest), []byte(*storedDigest)) {
		return ErrInvalidResetToken
	}

	if time.Now().After(*storedExpiresAt) {
		return ErrInvalidResetToken
	}

	return nil
}
