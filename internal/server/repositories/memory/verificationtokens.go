package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/google/uuid"
)

type VerificationTokenRepository struct {
	mu   sync.Mutex
	byID map[string]*models.VerificationToken
}

func NewVerificationTokenRepository() *VerificationTokenRepository {
	return &VerificationTokenRepository{byID: make(map[string]*models.VerificationToken)}
}

func (r *VerificationTokenRepository) Create(_ context.Context, token *models.VerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.byID {
		if t.Fingerprint == token.Fingerprint {
			return common.ErrorAlreadyExists
		}
	}

	token.ID = uuid.NewString()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	stored := *token
	r.byID[stored.ID] = &stored
	return nil
}

func (r *VerificationTokenRepository) Find(_ context.Context, accountID, fingerprint, purpose string) (*models.VerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.byID {
		if t.AccountID == accountID && t.Fingerprint == fingerprint && t.Purpose == purpose {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *VerificationTokenRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
	return nil
}

// Len is used by tests to check retention.
func (r *VerificationTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
