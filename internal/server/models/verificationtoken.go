package models

import "time"

// PurposeVerify tags tokens that prove ownership of the account email.
const PurposeVerify = "verify"

// VerificationToken is a one-time token. Only the fingerprint of the raw
// token is kept.
type VerificationToken struct {
	ID          string
	AccountID   string
	Fingerprint string
	Purpose     string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
