package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

const (
	insertQ  = `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(account_id,\s*token_hash,\s*client_context,\s*expires_at,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id\s*$`
	findQ    = `(?s)^SELECT\s+id,\s*account_id,\s*token_hash,\s*client_context,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1\s*$`
	replaceQ = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1\s+AND\s+expires_at\s*>\s*\$2\s+RETURNING\s+account_id\s*$`
	deleteQ  = `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func newToken(fp string, now time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		AccountID:     "a-1",
		Fingerprint:   fp,
		ClientContext: "curl/8.0",
		ExpiresAt:     now.Add(30 * 24 * time.Hour),
		CreatedAt:     now,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	tok := newToken("fp1", now)

	mock.ExpectQuery(insertQ).
		WithArgs("a-1", "fp1", "curl/8.0", tok.ExpiresAt, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rt-1"))

	if err := repo.Create(context.Background(), tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.ID != "rt-1" {
		t.Fatalf("id not populated: %+v", tok)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db err"))

	err := repo.Create(context.Background(), newToken("fp1", time.Now()))
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(10 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "account_id", "token_hash", "client_context", "expires_at", "created_at"}).
		AddRow("rt-1", "a-1", "fp1", "", expires, time.Now())

	mock.ExpectQuery(findQ).
		WithArgs("fp1").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "fp1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccountID != "a-1" || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFind_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("fp1").
		WillReturnError(errors.New("db err"))

	_, err := repo.Find(context.Background(), "fp1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestReplace_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	next := newToken("fp2", now)
	next.AccountID = ""

	mock.ExpectBegin()
	mock.ExpectQuery(replaceQ).
		WithArgs("fp1", now).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow("a-1"))
	mock.ExpectQuery(insertQ).
		WithArgs("a-1", "fp2", "curl/8.0", next.ExpiresAt, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rt-2"))
	mock.ExpectCommit()

	if err := repo.Replace(context.Background(), "fp1", next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.ID != "rt-2" || next.AccountID != "a-1" {
		t.Fatalf("next not populated: %+v", next)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_OldMissingOrExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(replaceQ).
		WithArgs("gone", now).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), "gone", newToken("fp2", now))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("insert must not run: %v", err)
	}
}

func TestReplace_InsertFailsRollsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(replaceQ).
		WithArgs("fp1", now).
		WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow("a-1"))
	mock.ExpectQuery(insertQ).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), "fp1", newToken("fp2", now))
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected db error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_BeginError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

	if err := repo.Replace(context.Background(), "fp1", newToken("fp2", time.Now())); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("fp1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "fp1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("fp1").
		WillReturnError(errors.New("db err"))

	err := repo.Delete(context.Background(), "fp1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
