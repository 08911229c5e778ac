package repomanager

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/verificationtokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

// PostgresRepositoryManager vends Postgres-backed repositories. With
// WithRedis, refresh tokens live in Redis instead.
type PostgresRepositoryManager struct {
	db      *sql.DB
	rdb     redis.UniversalClient
	refresh refreshtokens.Repository
}

type Option func(*PostgresRepositoryManager)

// WithRedis moves refresh token storage to rdb. The manager takes ownership
// of the client and closes it in Close.
func WithRedis(rdb redis.UniversalClient) Option {
	return func(m *PostgresRepositoryManager) {
		m.rdb = rdb
		m.refresh = refreshtokens.NewRedisRepository(rdb)
	}
}

func NewPostgresRepositoryManager(db *sql.DB, opts ...Option) *PostgresRepositoryManager {
	m := &PostgresRepositoryManager{db: db}
	for _, opt := range opts {
		opt(m)
	}
	if m.refresh == nil {
		m.refresh = refreshtokens.NewPostgresRepository(db)
	}
	return m
}

func (m *PostgresRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) VerificationTokens() verificationtokens.Repository {
	return verificationtokens.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refresh
}

type postgresTx struct {
	tx dbx.DBTX
}

func (t postgresTx) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(t.tx)
}

func (t postgresTx) VerificationTokens() verificationtokens.Repository {
	return verificationtokens.NewPostgresRepository(t.tx)
}

// WithTx hands fn repositories bound to a single database transaction.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresTx{tx: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	var errs []error
	if m.rdb != nil {
		errs = append(errs, m.rdb.Close())
	}
	errs = append(errs, m.db.Close())
	return errors.Join(errs...)
}
