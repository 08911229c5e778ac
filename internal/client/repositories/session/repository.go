// Package session persists the CLI's current login between runs.
package session

import (
	"context"
	"time"
)

// Session is the token pair the client holds for one account.
type Session struct {
	Email            string
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Repository stores at most one session. Load returns common.ErrorNotFound
// when nobody is logged in.
type Repository interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}
