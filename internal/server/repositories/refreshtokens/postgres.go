package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// PostgresRepository implements Repository on Postgres. Replace needs to
// open its own transaction, so the handle must be a dbx.DB (*sql.DB).
type PostgresRepository struct {
	db dbx.DB
}

func NewPostgresRepository(db dbx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertQuery = `INSERT INTO refresh_tokens (account_id, token_hash, client_context, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return insert(ctx, r.db, token)
}

func insert(ctx context.Context, db dbx.DBTX, token *models.RefreshToken) error {
	err := db.QueryRowContext(ctx, insertQuery,
		token.AccountID, token.Fingerprint, token.ClientContext, token.ExpiresAt, token.CreatedAt).Scan(&token.ID)
	return dbx.MapError(err)
}

// Find returns the record stored under fingerprint or common.ErrorNotFound.
// Expired rows are returned as-is; the caller decides what expiry means.
func (r *PostgresRepository) Find(ctx context.Context, fingerprint string) (*models.RefreshToken, error) {
	query :=
		`SELECT id, account_id, token_hash, client_context, expires_at, created_at
		 FROM refresh_tokens
		 WHERE token_hash = $1`

	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, fingerprint).
		Scan(&t.ID, &t.AccountID, &t.Fingerprint, &t.ClientContext, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

// Replace relies on the row lock taken by DELETE: a second transaction
// deleting the same row blocks until the first commits and then sees zero
// rows.
func (r *PostgresRepository) Replace(ctx context.Context, oldFingerprint string, next *models.RefreshToken) error {
	query :=
		`DELETE FROM refresh_tokens
		 WHERE token_hash = $1 AND expires_at > $2
		 RETURNING account_id`

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var accountID string
		if err := tx.QueryRowContext(ctx, query, oldFingerprint, next.CreatedAt).Scan(&accountID); err != nil {
			return dbx.MapError(err)
		}
		next.AccountID = accountID
		return insert(ctx, tx, next)
	})
}

// Delete is idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, fingerprint string) error {
	query := `DELETE FROM refresh_tokens WHERE token_hash = $1`

	_, err := r.db.ExecContext(ctx, query, fingerprint)
	return dbx.MapError(err)
}
