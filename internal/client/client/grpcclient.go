package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ClientContext is sent with Login and stored next to the refresh token.
const ClientContext = "sessionkeeper-cli"

type authAPI interface {
	Ping(ctx context.Context, in *rpc.PingRequest, opts ...grpc.CallOption) (*rpc.PingResponse, error)
	Register(ctx context.Context, in *rpc.RegisterRequest, opts ...grpc.CallOption) (*rpc.RegisterResponse, error)
	VerifyEmail(ctx context.Context, in *rpc.VerifyEmailRequest, opts ...grpc.CallOption) (*rpc.VerifyEmailResponse, error)
	Login(ctx context.Context, in *rpc.LoginRequest, opts ...grpc.CallOption) (*rpc.SessionResponse, error)
	Refresh(ctx context.Context, in *rpc.RefreshRequest, opts ...grpc.CallOption) (*rpc.SessionResponse, error)
	Logout(ctx context.Context, in *rpc.LogoutRequest, opts ...grpc.CallOption) (*rpc.LogoutResponse, error)
	WhoAmI(ctx context.Context, in *rpc.WhoAmIRequest, opts ...grpc.CallOption) (*rpc.WhoAmIResponse, error)
}

// Methods that may be retried after a refresh. Everything else either
// doesn't need a session or is the refresh itself.
var refreshable = map[string]bool{
	rpc.WhoAmIMethod: true,
}

type GRPCClient struct {
	endpointURL string
	dialOpts    []grpc.DialOption
	timeout     time.Duration
	store       session.Repository
	logger      logging.Logger

	conn   *grpc.ClientConn
	client authAPI

	// refreshMu serialises rotations; refresh tokens are single use.
	refreshMu sync.Mutex

	mu               sync.Mutex
	email            string
	accessToken      string
	refreshToken     string
	refreshExpiresAt time.Time
}

type Option func(*GRPCClient)

// WithSessionStore persists the session across restarts.
func WithSessionStore(r session.Repository) Option {
	return func(c *GRPCClient) { c.store = r }
}

// WithTimeout bounds every unary call.
func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *GRPCClient) { c.logger = l }
}

// WithDialOptions appends to the default insecure transport options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, logger: logging.Nop{}}
	for _, o := range opts {
		o(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewAuthClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	access, _ := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !refreshable[method] {
		return err
	}
	if status.Code(err) != codes.Unauthenticated {
		return err
	}

	if rerr := s.refresh(ctx, access); rerr != nil {
		s.logger.Debug(ctx, "token refresh failed", "error", rerr)
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// refresh rotates the refresh token unless another call already replaced
// stale.
func (s *GRPCClient) refresh(ctx context.Context, stale string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	access, refresh := s.tokens()
	if access != stale {
		return nil
	}
	if refresh == "" {
		return ErrNotLoggedIn
	}

	resp, err := s.client.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			s.forget(ctx)
		}
		return s.mapError(err)
	}

	s.adopt(ctx, resp)
	return nil
}

func (s *GRPCClient) adopt(ctx context.Context, resp *rpc.SessionResponse) {
	s.mu.Lock()
	s.email = resp.User.Email
	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	s.refreshExpiresAt = resp.RefreshExpiresAt
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	err := s.store.Save(ctx, &session.Session{
		Email:            resp.User.Email,
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresAt: resp.RefreshExpiresAt,
	})
	if err != nil {
		s.logger.Warn(ctx, "session not persisted", "error", err)
	}
}

func (s *GRPCClient) forget(ctx context.Context) {
	s.mu.Lock()
	s.email, s.accessToken, s.refreshToken = "", "", ""
	s.refreshExpiresAt = time.Time{}
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "stored session not cleared", "error", err)
	}
}

// Restore loads a previously persisted session. Sessions whose refresh
// token has expired are discarded.
func (s *GRPCClient) Restore(ctx context.Context) (string, bool) {
	if s.store == nil {
		return "", false
	}
	saved, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "stored session unreadable", "error", err)
		}
		return "", false
	}
	if !saved.RefreshExpiresAt.IsZero() && !time.Now().Before(saved.RefreshExpiresAt) {
		s.forget(ctx)
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = saved.Email
	s.accessToken = saved.AccessToken
	s.refreshToken = saved.RefreshToken
	s.refreshExpiresAt = saved.RefreshExpiresAt
	return s.email, true
}

func (s *GRPCClient) LoggedIn() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email, s.refreshToken != ""
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

// Register returns the verification link when the server exposes it
// (development deployments only).
func (s *GRPCClient) Register(ctx context.Context, email, password, name string) (string, error) {
	req := &rpc.RegisterRequest{Email: email, Password: password, Name: name}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	return resp.DeliveryRef, nil
}

func (s *GRPCClient) VerifyEmail(ctx context.Context, token, accountID string) error {
	_, err := s.client.VerifyEmail(ctx, &rpc.VerifyEmailRequest{Token: token, AccountID: accountID})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*rpc.User, error) {
	req := &rpc.LoginRequest{Email: email, Password: password, ClientContext: ClientContext}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.adopt(ctx, resp)
	return &resp.User, nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*rpc.User, error) {
	if _, ok := s.LoggedIn(); !ok {
		return nil, ErrNotLoggedIn
	}

	resp, err := s.client.WhoAmI(ctx, &rpc.WhoAmIRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.User, nil
}

// Logout always drops the local session, even if the server can't be
// reached.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, refresh := s.tokens()
	if refresh == "" {
		return nil
	}

	_, err := s.client.Logout(ctx, &rpc.LogoutRequest{RefreshToken: refresh})
	s.forget(ctx)
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.PermissionDenied:
		return ErrNotVerified
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
