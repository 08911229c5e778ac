// Package server wires configuration, storage, notification sinks and the
// auth service together and runs the gRPC and HTTP transports until the
// process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/notify"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/rest"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/telemetry"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
)

type App struct {
	config            *config.Config
	logger            logging.Logger
	repos             repomanager.RepositoryManager
	authService       *services.AuthService
	shutdownTelemetry func(context.Context) error
}

// openRepos is a seam for tests.
var openRepos = repomanager.Open

// NewApp builds every dependency from c. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSON(w, c.LogLevel)

	shutdown, err := telemetry.Setup(ctx, c.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	repos, err := openRepos(ctx, repomanager.Options{
		Backend:     c.StorageBackend,
		DatabaseDSN: c.DatabaseDSN,
		RedisAddr:   c.RedisAddr,
	})
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	svc, err := newAuthService(ctx, c, repos, logger)
	if err != nil {
		_ = repos.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	return &App{
		config:            c,
		logger:            logger,
		repos:             repos,
		authService:       svc,
		shutdownTelemetry: shutdown,
	}, nil
}

func newAuthService(ctx context.Context, c *config.Config, repos repomanager.RepositoryManager, logger logging.Logger) (*services.AuthService, error) {
	hasher, err := auth.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	var issuerOpts []auth.IssuerOption
	if c.JWTIssuer != "" {
		issuerOpts = append(issuerOpts, auth.WithIssuer(c.JWTIssuer))
	}
	issuer, err := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration, issuerOpts...)
	if err != nil {
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	notifier, err := newNotifier(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return services.NewAuthService(repos, hasher, issuer, notifier, logger, services.Settings{
		RefreshTokenValidity:      c.RefreshTokenValidity(),
		VerificationTokenValidity: c.VerificationTokenValidityDuration,
		DebugDelivery:             !c.Production(),
	}), nil
}

// newNotifier fans out to every configured sink. Without SMTP or S3 the
// verification link is only logged.
func newNotifier(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Fanout, error) {
	from := c.MailFrom
	if from == "" {
		from = notify.DefaultFrom
	}

	var sinks notify.Fanout
	if c.SMTPHost != "" {
		sinks = append(sinks, notify.NewSMTPNotifier(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, from, c.AppURL))
	}
	if c.S3Bucket != "" {
		outbox, err := notify.NewS3Outbox(ctx, notify.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		}, from, c.AppURL)
		if err != nil {
			return nil, fmt.Errorf("s3 outbox init error: %w", err)
		}
		sinks = append(sinks, outbox)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, notify.NewLogNotifier(logger, c.AppURL))
	}
	return sinks, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves both transports until ctx is cancelled, a signal arrives or
// one of the servers fails. Storage and telemetry are released on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment, "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.config.AppURL)
	httpServer := rest.NewServer(app.config.EndpointAddrHTTP, app.logger, app.authService, rest.Options{
		AppURL:        app.config.AppURL,
		SecureCookies: app.config.Production(),
		RefreshTTL:    app.config.RefreshTokenValidity(),
	})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, serve func(context.Context) error) {
		defer wg.Done()
		if err := serve(ctx); err != nil {
			app.logger.Error(ctx, "server failed", "server", name, "error", err)
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			mu.Unlock()
			cancelFunc()
		}
	}

	wg.Add(2)
	go run("grpc", grpcServer.Run)
	go run("http", httpServer.Run)
	wg.Wait()

	app.logger.Info(ctx, "Stopping app...")

	if err := app.repos.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if err := app.shutdownTelemetry(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
	}
	return errors.Join(errs...)
}
