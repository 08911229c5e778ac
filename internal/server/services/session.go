package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Login checks credentials and opens a session.
//
// The verified gate is evaluated before the password verdict, so an
// unverified account gets common.ErrAccountNotVerified whatever password was
// sent. The bcrypt comparison runs on every path.
func (s *AuthService) Login(ctx context.Context, email, password, clientContext string) (*Session, error) {
	account, err := s.repos.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, unavailable("lookup account", err)
	}

	passwordOK := s.hasher.Compare(password, account.PasswordHash)

	if !account.Verified {
		return nil, common.ErrAccountNotVerified
	}
	if !passwordOK {
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()
	session, raw, err := s.mint(account, now)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		AccountID:     account.ID,
		Fingerprint:   cryptox.Fingerprint(raw),
		ClientContext: clientContext,
		ExpiresAt:     session.RefreshExpiresAt,
		CreatedAt:     now,
	}
	if err := s.repos.RefreshTokens().Create(ctx, record); err != nil {
		return nil, unavailable("store refresh token", err)
	}

	s.logger.Info(ctx, "login succeeded", "account_id", account.ID)
	return session, nil
}

// Rotate exchanges a refresh token for a fresh session. The presented token
// is single-use: once rotated, presenting it again yields
// common.ErrUnauthenticated. Of two concurrent rotations of the same token
// exactly one succeeds.
func (s *AuthService) Rotate(ctx context.Context, rawToken string) (*Session, error) {
	if rawToken == "" {
		return nil, common.ErrUnauthenticated
	}

	refresh := s.repos.RefreshTokens()
	fingerprint := cryptox.Fingerprint(rawToken)

	old, err := refresh.Find(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, unavailable("find refresh token", err)
	}

	now := s.now()
	if old.Expired(now) {
		if err := refresh.Delete(ctx, fingerprint); err != nil {
			s.logger.Warn(ctx, "failed to delete expired refresh token", "account_id", old.AccountID, "error", err)
		}
		return nil, common.ErrUnauthenticated
	}

	account, err := s.repos.Accounts().GetByID(ctx, old.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, unavailable("lookup account", err)
	}

	session, raw, err := s.mint(account, now)
	if err != nil {
		return nil, err
	}

	next := &models.RefreshToken{
		AccountID:     account.ID,
		Fingerprint:   cryptox.Fingerprint(raw),
		ClientContext: old.ClientContext,
		ExpiresAt:     session.RefreshExpiresAt,
		CreatedAt:     now,
	}
	if err := refresh.Replace(ctx, fingerprint, next); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "refresh token already rotated", "account_id", account.ID)
			return nil, common.ErrUnauthenticated
		}
		return nil, unavailable("rotate refresh token", err)
	}

	return session, nil
}

// Logout deletes the refresh token. An empty or unknown token is a no-op.
// Issued access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := s.repos.RefreshTokens().Delete(ctx, cryptox.Fingerprint(rawToken)); err != nil {
		return unavailable("delete refresh token", err)
	}
	return nil
}

// mint signs an access token and generates a raw refresh token for account.
func (s *AuthService) mint(account *models.Account, now time.Time) (*Session, string, error) {
	access, err := s.tokens.Issue(account)
	if err != nil {
		return nil, "", internal("issue access token", err)
	}
	raw, err := cryptox.MakeToken(cryptox.RefreshTokenBytes)
	if err != nil {
		return nil, "", internal("make refresh token", err)
	}
	return &Session{
		AccessToken:      access,
		RefreshToken:     raw,
		RefreshExpiresAt: now.Add(s.settings.RefreshTokenValidity),
		Account:          identityOf(account),
	}, raw, nil
}
