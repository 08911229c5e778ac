package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "sessionkeeper.v1.AuthService"

const (
	PingMethod        = "/" + ServiceName + "/Ping"
	RegisterMethod    = "/" + ServiceName + "/Register"
	VerifyEmailMethod = "/" + ServiceName + "/VerifyEmail"
	LoginMethod       = "/" + ServiceName + "/Login"
	RefreshMethod     = "/" + ServiceName + "/Refresh"
	LogoutMethod      = "/" + ServiceName + "/Logout"
	WhoAmIMethod      = "/" + ServiceName + "/WhoAmI"
)

// AuthServer is implemented by the server transport.
type AuthServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*VerifyEmailResponse, error)
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	Refresh(context.Context, *RefreshRequest) (*SessionResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	WhoAmI(context.Context, *WhoAmIRequest) (*WhoAmIResponse, error)
}

func unary[Req, Resp any](fullMethod string, call func(AuthServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(PingMethod, AuthServer.Ping)},
		{MethodName: "Register", Handler: unary(RegisterMethod, AuthServer.Register)},
		{MethodName: "VerifyEmail", Handler: unary(VerifyEmailMethod, AuthServer.VerifyEmail)},
		{MethodName: "Login", Handler: unary(LoginMethod, AuthServer.Login)},
		{MethodName: "Refresh", Handler: unary(RefreshMethod, AuthServer.Refresh)},
		{MethodName: "Logout", Handler: unary(LogoutMethod, AuthServer.Logout)},
		{MethodName: "WhoAmI", Handler: unary(WhoAmIMethod, AuthServer.WhoAmI)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessionkeeper/v1/auth",
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// AuthClient is the client side of ServiceDesc.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingMethod, in, opts)
}

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, RegisterMethod, in, opts)
}

func (c *AuthClient) VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*VerifyEmailResponse, error) {
	return invoke[VerifyEmailResponse](ctx, c.cc, VerifyEmailMethod, in, opts)
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, LoginMethod, in, opts)
}

func (c *AuthClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, RefreshMethod, in, opts)
}

func (c *AuthClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, LogoutMethod, in, opts)
}

func (c *AuthClient) WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*WhoAmIResponse, error) {
	return invoke[WhoAmIResponse](ctx, c.cc, WhoAmIMethod, in, opts)
}
