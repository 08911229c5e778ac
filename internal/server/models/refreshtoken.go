package models

import "time"

// RefreshToken is an active refresh credential. ClientContext is
// informational (user agent or similar) and never used for authorization.
type RefreshToken struct {
	ID            string
	AccountID     string
	Fingerprint   string
	ClientContext string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
