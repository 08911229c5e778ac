package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	client client.Client
	db     *sql.DB
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp opens the local session database, connects to the server and
// restores the previous login if there is one.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr,
		client.WithSessionStore(session.NewSQLiteRepository(db)),
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, apiClient, logger, os.Stdin, os.Stdout)
	a.db = db
	if email, ok := apiClient.Restore(ctx); ok {
		fmt.Fprintf(a.out, "Welcome back, %s\n", email)
	}
	return a, nil
}

func newApp(c *config.Config, cl client.Client, l logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		client: cl,
		logger: l,
		reader: bufio.NewReader(in),
		out:    out,
		mode:   ModeOffline,
	}
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) close() {
	if err := a.client.Close(); err != nil {
		a.logger.Warn(context.Background(), "closing client", "error", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.client.LoggedIn()
	return ok
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) status() string {
	email, ok := a.client.LoggedIn()
	if !ok {
		return string(a.Mode())
	}
	return fmt.Sprintf("%s | %s", a.Mode(), email)
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
