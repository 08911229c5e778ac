// Package accounts stores Account records.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository persists accounts. Create returns common.ErrorAlreadyExists when
// the email is taken; lookups return common.ErrorNotFound on a miss.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	MarkVerified(ctx context.Context, id string) error
}
