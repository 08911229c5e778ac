// Package grpc exposes the auth service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

type authService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	VerifyEmail(ctx context.Context, rawToken, accountID string) error
	Login(ctx context.Context, email, password, clientContext string) (*services.Session, error)
	Rotate(ctx context.Context, rawToken string) (*services.Session, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, signedToken string) (*services.Identity, error)
}

type GRPCServer struct {
	address string
	auth    authService
	appURL  string
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, svc authService, appURL string) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    svc,
		appURL:  appURL,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	)
	rpc.RegisterAuthServer(srv, &handler{server: s})
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}
