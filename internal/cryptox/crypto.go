// Package cryptox generates opaque tokens and derives the fingerprints under
// which they are stored.
//
// A raw token is handed to the client exactly once. Only its fingerprint
// (hex SHA-256) is ever persisted, so a copy of the store cannot be replayed.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// VerificationTokenBytes is the entropy of a one-time email verification token.
	VerificationTokenBytes = 32
	// RefreshTokenBytes is the entropy of a refresh token.
	RefreshTokenBytes = 48

	minTokenBytes = 24
)

var ErrTokenTooShort = errors.New("token length below minimum")

// randRead is swapped in tests to simulate an exhausted entropy source.
var randRead = rand.Read

// MakeToken returns byteLength random bytes encoded as unpadded base64url.
// Lengths below 24 bytes are rejected.
func MakeToken(byteLength int) (string, error) {
	if byteLength < minTokenBytes {
		return "", fmt.Errorf("%w: %d", ErrTokenTooShort, byteLength)
	}

	b := make([]byte, byteLength)
	defer Wipe(b)

	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint derives the storage key of a raw token.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Wipe zeroes b. A nil slice is ignored.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
