package repomanager

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/verificationtokens"
)

// MemoryRepositoryManager keeps everything in process. State is lost on exit.
type MemoryRepositoryManager struct {
	accounts *memory.AccountRepository
	verify   *memory.VerificationTokenRepository
	refresh  *memory.RefreshTokenRepository
	uow      *memory.UnitOfWork
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	m := &MemoryRepositoryManager{
		accounts: memory.NewAccountRepository(),
		verify:   memory.NewVerificationTokenRepository(),
		refresh:  memory.NewRefreshTokenRepository(),
	}
	m.uow = memory.NewUnitOfWork(m.accounts, m.verify)
	return m
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Accounts() accounts.Repository { return m.accounts }

func (m *MemoryRepositoryManager) VerificationTokens() verificationtokens.Repository {
	return m.verify
}

func (m *MemoryRepositoryManager) RefreshTokens() refreshtokens.Repository { return m.refresh }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return m.uow.Run(ctx, func(ctx context.Context, j *memory.Journal) error {
		return fn(ctx, j)
	})
}

func (m *MemoryRepositoryManager) Close() error { return nil }
