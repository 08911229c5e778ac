package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Infrastructure details are
// logged, never returned.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, validation.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.InvalidArgument, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrExpiredToken):
		return status.Error(codes.InvalidArgument, common.ErrExpiredToken.Error())
	case errors.Is(err, common.ErrDuplicateAccount):
		return status.Error(codes.AlreadyExists, common.ErrDuplicateAccount.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, common.ErrAccountNotVerified):
		return status.Error(codes.PermissionDenied, common.ErrAccountNotVerified.Error())
	case errors.Is(err, common.ErrUnavailable):
		s.logger.Error(ctx, "dependency unavailable", "error", err)
		return status.Error(codes.Unavailable, "service unavailable")
	default:
		s.logger.Error(ctx, "internal error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
