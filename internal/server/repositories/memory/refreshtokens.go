package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/google/uuid"
)

type RefreshTokenRepository struct {
	mu            sync.Mutex
	byFingerprint map[string]*models.RefreshToken
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{byFingerprint: make(map[string]*models.RefreshToken)}
}

func (r *RefreshTokenRepository) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byFingerprint[token.Fingerprint]; ok {
		return common.ErrorAlreadyExists
	}
	r.store(token)
	return nil
}

func (r *RefreshTokenRepository) Find(_ context.Context, fingerprint string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byFingerprint[fingerprint]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *RefreshTokenRepository) Replace(_ context.Context, oldFingerprint string, next *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byFingerprint[oldFingerprint]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byFingerprint, oldFingerprint)
	if old.Expired(next.CreatedAt) {
		return common.ErrorNotFound
	}

	next.AccountID = old.AccountID
	r.store(next)
	return nil
}

func (r *RefreshTokenRepository) Delete(_ context.Context, fingerprint string) error {
	r.mu.Lock()
	delete(r.byFingerprint, fingerprint)
	r.mu.Unlock()
	return nil
}

// Len is used by tests to check that rotation leaves one record behind.
func (r *RefreshTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byFingerprint)
}

// store must be called with mu held.
func (r *RefreshTokenRepository) store(token *models.RefreshToken) {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	stored := *token
	r.byFingerprint[stored.Fingerprint] = &stored
}
