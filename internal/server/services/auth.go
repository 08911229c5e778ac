// Package services contains the server-side business logic: registration,
// email verification, login, refresh token rotation, logout and access
// token authentication.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
)

// PasswordHasher is satisfied by *auth.BcryptHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// AccessTokens is satisfied by *auth.TokenIssuer.
type AccessTokens interface {
	Issue(account *models.Account) (string, error)
	Parse(signed string) (*auth.AccessClaims, error)
}

// Notifier delivers the raw verification token to the account owner.
// deliveryRef is an optional debug artifact such as a preview link.
type Notifier interface {
	SendVerification(ctx context.Context, email, rawToken, accountID string) (deliveryRef string, err error)
}

// Settings are the lifetimes and switches of the token lifecycle.
type Settings struct {
	RefreshTokenValidity      time.Duration
	VerificationTokenValidity time.Duration
	// DebugDelivery exposes the notifier's deliveryRef in RegisterResult.
	// Never enable it in production.
	DebugDelivery bool
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type RegisterResult struct {
	AccountID   string
	DeliveryRef string
}

// Identity is the authenticated principal handed to request handlers.
type Identity struct {
	ID       string
	Email    string
	Name     string
	Verified bool
}

// Session is what a successful login or rotation hands back to the client.
// RefreshToken is the raw token; it is never stored.
type Session struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	Account          Identity
}

// AuthService runs the token lifecycle. It holds no mutable state of its own
// beyond a lazily computed dummy digest; concurrent rotation is arbitrated
// by the refresh token repository.
type AuthService struct {
	repos    repomanager.RepositoryManager
	hasher   PasswordHasher
	tokens   AccessTokens
	notifier Notifier
	logger   logging.Logger
	settings Settings
	now      func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

type Option func(*AuthService)

// WithClock overrides time.Now. Tests use it to step past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	repos repomanager.RepositoryManager,
	hasher PasswordHasher,
	tokens AccessTokens,
	notifier Notifier,
	logger logging.Logger,
	settings Settings,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		repos:    repos,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With("module", "auth_service"),
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func identityOf(a *models.Account) Identity {
	return Identity{ID: a.ID, Email: a.Email, Name: a.Name, Verified: a.Verified}
}

// unavailable wraps a persistence or infrastructure failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrUnavailable, op, err)
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}

// burnCompare spends one bcrypt comparison against a throwaway digest so a
// missing account costs the same as a wrong password.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("sessionkeeper-timing-equalizer")
	})
	_ = s.hasher.Compare(password, s.dummyDigest)
}
