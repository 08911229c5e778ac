package verificationtokens

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.VerificationToken) error {
	query :=
		`INSERT INTO verification_tokens (account_id, token_hash, purpose, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		token.AccountID, token.Fingerprint, token.Purpose, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	return dbx.MapError(err)
}

func (r *PostgresRepository) Find(ctx context.Context, accountID, fingerprint, purpose string) (*models.VerificationToken, error) {
	query :=
		`SELECT id, account_id, token_hash, purpose, expires_at, created_at
		 FROM verification_tokens
		 WHERE account_id = $1 AND token_hash = $2 AND purpose = $3`

	t := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, accountID, fingerprint, purpose).
		Scan(&t.ID, &t.AccountID, &t.Fingerprint, &t.Purpose, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

// Delete is idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM verification_tokens WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return dbx.MapError(err)
}
