// Package verificationtokens stores one-time email verification tokens by
// fingerprint.
package verificationtokens

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository persists verification tokens. Find is scoped to the owning
// account and purpose; a token presented for another account is a miss.
type Repository interface {
	Create(ctx context.Context, token *models.VerificationToken) error
	Find(ctx context.Context, accountID, fingerprint, purpose string) (*models.VerificationToken, error)
	Delete(ctx context.Context, id string) error
}
