package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/verificationtokens"
)

// UnitOfWork groups account and verification token writes. Inserts and
// updates apply immediately and are undone if the unit fails; deletes wait
// for the unit to succeed. Units run one at a time.
type UnitOfWork struct {
	mu       sync.Mutex
	accounts *AccountRepository
	tokens   verificationtokens.Repository
}

func NewUnitOfWork(a *AccountRepository, t verificationtokens.Repository) *UnitOfWork {
	return &UnitOfWork{accounts: a, tokens: t}
}

// Journal is the view of the stores handed to a running unit.
type Journal struct {
	uow     *UnitOfWork
	undo    []func()
	deletes []string
}

func (j *Journal) Accounts() accounts.Repository { return journalAccounts{j} }

func (j *Journal) VerificationTokens() verificationtokens.Repository {
	return journalTokens{j}
}

// Run calls fn and keeps its writes only when it returns nil. A panic in fn
// is rethrown after the writes are undone.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, j *Journal) error) (err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	j := &Journal{uow: u}
	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
		if err != nil {
			j.rollback()
			return
		}
		for _, id := range j.deletes {
			if derr := u.tokens.Delete(ctx, id); derr != nil {
				err = derr
				return
			}
		}
	}()

	return fn(ctx, j)
}

func (j *Journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

type journalAccounts struct{ j *Journal }

func (a journalAccounts) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	created, err := a.j.uow.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	id, email := created.ID, created.Email
	a.j.undo = append(a.j.undo, func() { a.j.uow.accounts.remove(id, email) })
	return created, nil
}

func (a journalAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return a.j.uow.accounts.GetByEmail(ctx, email)
}

func (a journalAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return a.j.uow.accounts.GetByID(ctx, id)
}

func (a journalAccounts) MarkVerified(ctx context.Context, id string) error {
	prev, err := a.j.uow.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := a.j.uow.accounts.MarkVerified(ctx, id); err != nil {
		return err
	}
	if !prev.Verified {
		a.j.undo = append(a.j.undo, func() { a.j.uow.accounts.setVerified(id, false) })
	}
	return nil
}

type journalTokens struct{ j *Journal }

func (t journalTokens) Create(ctx context.Context, token *models.VerificationToken) error {
	if err := t.j.uow.tokens.Create(ctx, token); err != nil {
		return err
	}
	id := token.ID
	t.j.undo = append(t.j.undo, func() { _ = t.j.uow.tokens.Delete(context.Background(), id) })
	return nil
}

func (t journalTokens) Find(ctx context.Context, accountID, fingerprint, purpose string) (*models.VerificationToken, error) {
	token, err := t.j.uow.tokens.Find(ctx, accountID, fingerprint, purpose)
	if err != nil {
		return nil, err
	}
	for _, id := range t.j.deletes {
		if id == token.ID {
			return nil, common.ErrorNotFound
		}
	}
	return token, nil
}

func (t journalTokens) Delete(_ context.Context, id string) error {
	t.j.deletes = append(t.j.deletes, id)
	return nil
}
