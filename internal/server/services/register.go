package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Register creates an unverified account and its verification token in one
// transaction, then sends the token. A notifier failure is logged and
// swallowed: the account stays and the caller still gets its id.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	_, err := s.repos.Accounts().GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateAccount
	case !errors.Is(err, common.ErrorNotFound):
		return nil, unavailable("lookup account", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	raw, err := cryptox.MakeToken(cryptox.VerificationTokenBytes)
	if err != nil {
		return nil, internal("make verification token", err)
	}

	now := s.now().UTC()
	var account *models.Account
	err = s.repos.WithTx(ctx, func(ctx context.Context, tx repomanager.Tx) error {
		created, err := tx.Accounts().Create(ctx, &models.Account{
			Email:        in.Email,
			Name:         in.Name,
			PasswordHash: digest,
			CreatedAt:    now,
		})
		if err != nil {
			// The unique constraint settles registration races.
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrDuplicateAccount
			}
			return unavailable("create account", err)
		}

		token := &models.VerificationToken{
			AccountID:   created.ID,
			Fingerprint: cryptox.Fingerprint(raw),
			Purpose:     models.PurposeVerify,
			ExpiresAt:   now.Add(s.settings.VerificationTokenValidity),
			CreatedAt:   now,
		}
		if err := tx.VerificationTokens().Create(ctx, token); err != nil {
			return unavailable("store verification token", err)
		}

		account = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) || errors.Is(err, common.ErrUnavailable) {
			return nil, err
		}
		return nil, unavailable("commit registration", err)
	}

	ref, err := s.notifier.SendVerification(ctx, account.Email, raw, account.ID)
	if err != nil {
		s.logger.Warn(ctx, "verification delivery failed", "account_id", account.ID, "error", err)
	}

	s.logger.Info(ctx, "account registered", "account_id", account.ID)

	res := &RegisterResult{AccountID: account.ID}
	if s.settings.DebugDelivery {
		res.DeliveryRef = ref
	}
	return res, nil
}

// VerifyEmail consumes a verification token and marks its account verified.
// Unknown tokens, tokens of another account and already used tokens yield
// common.ErrInvalidToken; an expired token is deleted and yields
// common.ErrExpiredToken.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken, accountID string) error {
	if rawToken == "" {
		return common.ErrInvalidToken
	}
	if _, err := uuid.Parse(accountID); err != nil {
		return common.ErrInvalidToken
	}

	tokens := s.repos.VerificationTokens()

	token, err := tokens.Find(ctx, accountID, cryptox.Fingerprint(rawToken), models.PurposeVerify)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return unavailable("find verification token", err)
	}

	if token.Expired(s.now()) {
		if err := tokens.Delete(ctx, token.ID); err != nil {
			s.logger.Warn(ctx, "failed to delete expired verification token", "account_id", accountID, "error", err)
		}
		return common.ErrExpiredToken
	}

	if err := s.repos.Accounts().MarkVerified(ctx, accountID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return unavailable("mark account verified", err)
	}

	if err := tokens.Delete(ctx, token.ID); err != nil {
		s.logger.Warn(ctx, "failed to delete used verification token", "account_id", accountID, "error", err)
	}

	s.logger.Info(ctx, "email verified", "account_id", accountID)
	return nil
}
