// Package repomanager wires the repository implementations of a storage
// backend together and owns their connections.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/verificationtokens"
)

// Tx exposes the repositories whose writes must commit together.
type Tx interface {
	Accounts() accounts.Repository
	VerificationTokens() verificationtokens.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// WithTx runs fn in one transaction; any error from fn discards its
	// writes.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Accounts() accounts.Repository
	VerificationTokens() verificationtokens.Repository
	RefreshTokens() refreshtokens.Repository
	Close() error
}
