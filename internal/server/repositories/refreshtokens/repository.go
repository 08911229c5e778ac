// Package refreshtokens stores active refresh tokens keyed by fingerprint and
// provides the atomic rotation primitive.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository persists refresh tokens.
//
// Replace deletes the record stored under oldFingerprint and inserts next as
// one atomic step. It succeeds only if the old record exists and has not
// expired at next.CreatedAt; otherwise it returns common.ErrorNotFound and
// stores nothing. When two callers race on the same old fingerprint exactly
// one of them succeeds. next.AccountID is taken from the replaced record.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Find(ctx context.Context, fingerprint string) (*models.RefreshToken, error)
	Replace(ctx context.Context, oldFingerprint string, next *models.RefreshToken) error
	Delete(ctx context.Context, fingerprint string) error
}
