// Package rest exposes the auth service as a JSON HTTP API under /api/auth.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type authService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	VerifyEmail(ctx context.Context, rawToken, accountID string) error
	Login(ctx context.Context, email, password, clientContext string) (*services.Session, error)
	Rotate(ctx context.Context, rawToken string) (*services.Session, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, signedToken string) (*services.Identity, error)
}

type Options struct {
	AppURL string
	// SecureCookies marks the refresh cookie Secure; set in production.
	SecureCookies bool
	// RefreshTTL is the refresh cookie Max-Age.
	RefreshTTL time.Duration
}

type Server struct {
	address string
	auth    authService
	logger  logging.Logger
	opts    Options
}

func NewServer(a string, l logging.Logger, svc authService, opts Options) *Server {
	return &Server{
		address: a,
		auth:    svc,
		logger:  l.With("module", "rest_server"),
		opts:    opts,
	}
}

// Handler returns the routed API with request id and access log middleware.
// The middleware wraps the router itself so unmatched requests are tagged
// and logged too.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/verify", s.verifyEmail).Methods(http.MethodGet)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	api.Handle("/me", s.authenticated(http.HandlerFunc(s.me))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{StatusCode: http.StatusNotFound, Message: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{StatusCode: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})
	return requestID(s.accessLog(r))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts on listen until ctx is cancelled. Requests in flight at that
// point keep their own contexts and are drained by Shutdown.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP shutdown incomplete", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}
