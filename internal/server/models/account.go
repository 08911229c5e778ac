// Package models holds the persistent entities of the session service.
package models

import "time"

// Account is the identity root. Email is unique as stored and accounts are
// never hard-deleted.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}
