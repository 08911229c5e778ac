package verificationtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+verification_tokens\s*\(account_id,\s*token_hash,\s*purpose,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`
	findQ   = `(?s)^SELECT\s+id,\s*account_id,\s*token_hash,\s*purpose,\s*expires_at,\s*created_at\s+FROM\s+verification_tokens\s+WHERE\s+account_id\s*=\s*\$1\s+AND\s+token_hash\s*=\s*\$2\s+AND\s+purpose\s*=\s*\$3\s*$`
	deleteQ = `(?s)^DELETE\s+FROM\s+verification_tokens\s+WHERE\s+id\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery(insertQ).
		WithArgs("a-1", "fp", models.PurposeVerify, exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("vt-1", time.Now()))

	tok := &models.VerificationToken{AccountID: "a-1", Fingerprint: "fp", Purpose: models.PurposeVerify, ExpiresAt: exp}
	require.NoError(t, repo.Create(context.Background(), tok))
	assert.Equal(t, "vt-1", tok.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.VerificationToken{AccountID: "a-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestFind(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		exp := time.Now().Add(time.Hour)

		mock.ExpectQuery(findQ).
			WithArgs("a-1", "fp", models.PurposeVerify).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "token_hash", "purpose", "expires_at", "created_at"}).
				AddRow("vt-1", "a-1", "fp", models.PurposeVerify, exp, time.Now()))

		got, err := repo.Find(context.Background(), "a-1", "fp", models.PurposeVerify)
		require.NoError(t, err)
		assert.Equal(t, "vt-1", got.ID)
		assert.True(t, got.ExpiresAt.Equal(exp))
	})

	t.Run("miss", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)

		mock.ExpectQuery(findQ).
			WithArgs("a-2", "fp", models.PurposeVerify).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(context.Background(), "a-2", "fp", models.PurposeVerify)
		require.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs("vt-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs("vt-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "vt-1"))
	require.NoError(t, repo.Delete(context.Background(), "vt-1"), "second delete is a no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}
