package client

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
)

// Client is what the CLI needs from the session service.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, password, name string) (string, error)
	VerifyEmail(ctx context.Context, token, accountID string) error
	Login(ctx context.Context, email, password string) (*rpc.User, error)
	WhoAmI(ctx context.Context) (*rpc.User, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (string, bool)
	LoggedIn() (string, bool)
}
