package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Options selects and addresses a storage backend.
type Options struct {
	Backend     string
	DatabaseDSN string
	// RedisAddr, when set with the postgres backend, moves refresh tokens
	// to Redis.
	RedisAddr string
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects the selected backend, checks connectivity and applies
// migrations.
func Open(ctx context.Context, opts Options) (RepositoryManager, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryRepositoryManager(), nil
	case BackendPostgres, "":
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}

	db, err := sqlOpen("pgx", opts.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	var mopts []Option
	if opts.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = db.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		mopts = append(mopts, WithRedis(rdb))
	}

	m := NewPostgresRepositoryManager(db, mopts...)
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return m, nil
}
