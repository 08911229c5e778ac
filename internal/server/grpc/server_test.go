package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeAuth struct {
	registerIn  services.RegisterInput
	registerOut *services.RegisterResult
	registerErr error

	verifyErr error

	loginClientContext string
	sessionOut         *services.Session
	sessionErr         error

	logoutErr error

	identity *services.Identity
	authErr  error
}

func (f *fakeAuth) Register(_ context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
	f.registerIn = in
	return f.registerOut, f.registerErr
}

func (f *fakeAuth) VerifyEmail(context.Context, string, string) error { return f.verifyErr }

func (f *fakeAuth) Login(_ context.Context, _, _, clientContext string) (*services.Session, error) {
	f.loginClientContext = clientContext
	return f.sessionOut, f.sessionErr
}

func (f *fakeAuth) Rotate(context.Context, string) (*services.Session, error) {
	return f.sessionOut, f.sessionErr
}

func (f *fakeAuth) Logout(context.Context, string) error { return f.logoutErr }

func (f *fakeAuth) Authenticate(context.Context, string) (*services.Identity, error) {
	return f.identity, f.authErr
}

// startServer serves svc over an in-memory listener and returns a client.
func startServer(t *testing.T, svc authService) *rpc.AuthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufconn", logging.Nop{}, svc, "http://localhost:3000")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent("sessionkeeper-test"),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	return rpc.NewAuthClient(conn)
}

func TestPing_OK(t *testing.T) {
	client := startServer(t, &fakeAuth{})

	resp, err := client.Ping(context.Background(), &rpc.PingRequest{})
	if err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	if resp.Status != "OK" {
		t.Fatalf("unexpected status: %q", resp.Status)
	}
}

func TestRegister_OK(t *testing.T) {
	f := &fakeAuth{registerOut: &services.RegisterResult{AccountID: "42", DeliveryRef: "link"}}
	client := startServer(t, f)

	resp, err := client.Register(context.Background(), &rpc.RegisterRequest{
		Email: " alice@example.com", Password: "Secret123!", Name: "Alice",
	})
	require.NoError(t, err)
	require.Equal(t, "42", resp.AccountID)
	require.Equal(t, "link", resp.DeliveryRef)
	require.Equal(t, "alice@example.com", f.registerIn.Email)
}

func TestRegister_InvalidArgument(t *testing.T) {
	client := startServer(t, &fakeAuth{})

	_, err := client.Register(context.Background(), &rpc.RegisterRequest{Email: "nope", Password: "x"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRegister_Duplicate(t *testing.T) {
	client := startServer(t, &fakeAuth{registerErr: common.ErrDuplicateAccount})

	_, err := client.Register(context.Background(), &rpc.RegisterRequest{Email: "a@example.com", Password: "Secret123!"})
	require.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestLogin_UsesUserAgentAsClientContext(t *testing.T) {
	f := &fakeAuth{sessionOut: &services.Session{
		AccessToken:  "A",
		RefreshToken: "R",
		Account:      services.Identity{ID: "1", Email: "a@example.com"},
	}}
	client := startServer(t, f)

	resp, err := client.Login(context.Background(), &rpc.LoginRequest{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "A", resp.AccessToken)
	require.Equal(t, "R", resp.RefreshToken)
	require.Equal(t, "a@example.com", resp.User.Email)
	require.Contains(t, f.loginClientContext, "sessionkeeper-test")
}

func TestWhoAmI_RequiresToken(t *testing.T) {
	f := &fakeAuth{identity: &services.Identity{ID: "1", Email: "a@example.com", Verified: true}}
	client := startServer(t, f)

	_, err := client.WhoAmI(context.Background(), &rpc.WhoAmIRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
	require.Equal(t, "missing token", status.Convert(err).Message())

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "token")
	resp, err := client.WhoAmI(ctx, &rpc.WhoAmIRequest{})
	require.NoError(t, err)
	require.Equal(t, "a@example.com", resp.User.Email)

	ctx = metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer token")
	_, err = client.WhoAmI(ctx, &rpc.WhoAmIRequest{})
	require.NoError(t, err)
}

func TestWhoAmI_RejectedToken(t *testing.T) {
	client := startServer(t, &fakeAuth{authErr: common.ErrUnauthenticated})

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "expired")
	_, err := client.WhoAmI(ctx, &rpc.WhoAmIRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestToStatus(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{}, &fakeAuth{}, "")
	ctx := context.Background()

	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrInvalidToken, codes.InvalidArgument},
		{common.ErrExpiredToken, codes.InvalidArgument},
		{common.ErrDuplicateAccount, codes.AlreadyExists},
		{common.ErrInvalidCredentials, codes.Unauthenticated},
		{common.ErrUnauthenticated, codes.Unauthenticated},
		{common.ErrAccountNotVerified, codes.PermissionDenied},
		{errors.Join(common.ErrUnavailable, errors.New("db error: timeout")), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		st := status.Convert(s.toStatus(ctx, tt.err))
		require.Equal(t, tt.code, st.Code(), "error %v", tt.err)
		require.NotContains(t, st.Message(), "timeout")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, &fakeAuth{}, "")

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
