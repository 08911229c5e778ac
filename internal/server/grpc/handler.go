package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// handler implements rpc.AuthServer on top of GRPCServer.
type handler struct {
	server *GRPCServer
}

var _ rpc.AuthServer = (*handler)(nil)

func toUser(id services.Identity) rpc.User {
	return rpc.User{ID: id.ID, Email: id.Email, Name: id.Name, Verified: id.Verified}
}

func toSession(s *services.Session) *rpc.SessionResponse {
	return &rpc.SessionResponse{
		AccessToken:      s.AccessToken,
		RefreshToken:     s.RefreshToken,
		RefreshExpiresAt: s.RefreshExpiresAt,
		User:             toUser(s.Account),
	}
}

func userAgent(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("user-agent"); len(values) > 0 {
			return strings.Join(values, " ")
		}
	}
	return ""
}

func (h *handler) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (h *handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	s := h.server

	in := validation.Registration{Email: req.Email, Password: req.Password, Name: req.Name}
	if err := in.Validate(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	res, err := s.auth.Register(ctx, services.RegisterInput{Email: in.Email, Password: in.Password, Name: in.Name})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.RegisterResponse{
		AccountID:   res.AccountID,
		Message:     "Registered: verify email",
		DeliveryRef: res.DeliveryRef,
	}, nil
}

func (h *handler) VerifyEmail(ctx context.Context, req *rpc.VerifyEmailRequest) (*rpc.VerifyEmailResponse, error) {
	s := h.server

	in := validation.Verification{Token: req.Token, AccountID: req.AccountID}
	if err := in.Validate(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	if err := s.auth.VerifyEmail(ctx, in.Token, in.AccountID); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.VerifyEmailResponse{URL: strings.TrimRight(s.appURL, "/") + "/login"}, nil
}

func (h *handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.SessionResponse, error) {
	s := h.server

	in := validation.Login{Email: req.Email, Password: req.Password}
	if err := in.Validate(); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	clientContext := req.ClientContext
	if clientContext == "" {
		clientContext = userAgent(ctx)
	}

	session, err := s.auth.Login(ctx, in.Email, in.Password, clientContext)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return toSession(session), nil
}

func (h *handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.SessionResponse, error) {
	s := h.server

	session, err := s.auth.Rotate(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return toSession(session), nil
}

func (h *handler) Logout(ctx context.Context, req *rpc.LogoutRequest) (*rpc.LogoutResponse, error) {
	s := h.server

	if err := s.auth.Logout(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.LogoutResponse{}, nil
}

func (h *handler) WhoAmI(ctx context.Context, req *rpc.WhoAmIRequest) (*rpc.WhoAmIResponse, error) {
	id, ok := identityFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return &rpc.WhoAmIResponse{User: toUser(*id)}, nil
}
