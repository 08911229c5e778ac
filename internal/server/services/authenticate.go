package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/google/uuid"
)

// Authenticate resolves a signed access token to the account it names.
// Every token problem, and an account that no longer exists, is reported as
// common.ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, signedToken string) (*Identity, error) {
	if signedToken == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, err := s.tokens.Parse(signedToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: malformed subject", common.ErrUnauthenticated)
	}

	account, err := s.repos.Accounts().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, unavailable("lookup account", err)
	}

	id := identityOf(account)
	return &id, nil
}
