// Package notify implements notification delivery: capability tokens for
// callback authentication, channel senders, and the fan-out dispatcher.
package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// TokenSigner signs and verifies capability tokens for the snooze/dismiss
// callback. A token is a pure function of the reminder ID and a server-held
// secret: deterministic, never stored, no expiry. A leaked token only
// authorizes snooze/dismiss of one reminder.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner creates a TokenSigner with the given server secret.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign returns hex(HMAC-SHA256(secret, reminderID)).
func (s *TokenSigner) Sign(reminderID uuid.UUID) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(reminderID.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the expected signature for the reminder ID and compares
// it to the presented token in constant time. Malformed or length-mismatched
// tokens verify false; Verify never returns an error or panics.
func (s *TokenSigner) Verify(reminderID uuid.UUID, token string) bool {
	presented, err := hex.DecodeString(token)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(reminderID.String()))
	expected := mac.Sum(nil)

	return hmac.Equal(expected, presented)
}
