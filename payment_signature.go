package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PaymentVerifier validates provider payment callback signatures.
type PaymentVerifier struct {
	secret []byte
}

// NewPaymentVerifier creates a verifier bound to the shared provider secret.
func NewPaymentVerifier(secret string) *PaymentVerifier {
	return &PaymentVerifier{secret: []byte(secret)}
}

// Sign computes the hex encoded HMAC-SHA256 over the provider's canonical
// "paymentID|subscriptionID" payload.
func (v *PaymentVerifier) Sign(paymentID, subscriptionID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the presented signature in constant time. Comparison is done
// over the raw hex strings; casing differences count as a mismatch.
func (v *PaymentVerifier) Verify(paymentID, subscriptionID, signature string) error {
	if len(v.secret) == 0 || strings.TrimSpace(signature) == "" {
		return ErrSignatureMismatch
	}

	expected := v.Sign(paymentID, subscriptionID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}

	return nil
}
