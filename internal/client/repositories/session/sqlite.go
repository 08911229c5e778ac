package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Load(ctx context.Context) (*Session, error) {
	var (
		s         Session
		expiresMs int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT email, access_token, refresh_token, refresh_expires_at FROM session WHERE id = 1`,
	).Scan(&s.Email, &s.AccessToken, &s.RefreshToken, &expiresMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.RefreshExpiresAt = time.UnixMilli(expiresMs).UTC()
	return &s, nil
}

// Save replaces the stored session.
func (r *SQLiteRepository) Save(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, email, access_token, refresh_token, refresh_expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			refresh_expires_at = excluded.refresh_expires_at,
			updated_at = excluded.updated_at
	`, s.Email, s.AccessToken, s.RefreshToken, s.RefreshExpiresAt.UnixMilli(), r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
