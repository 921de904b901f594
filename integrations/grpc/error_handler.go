package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tradepost/marketauth/core"
)

// ErrorHandler converts validation and authorization errors to gRPC status errors.
type ErrorHandler func(error) error

// DefaultErrorHandler maps failures onto gRPC status codes:
//
//   - missing, expired, invalid or unverifiable token: Unauthenticated
//   - malformed authorization metadata: InvalidArgument
//   - permission denied: PermissionDenied
//   - identity provider unavailable: Unavailable
//   - anything else: Internal
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	code := core.Code(err)

	switch {
	case errors.Is(err, core.ErrTokenMissing):
		return status.Error(codes.Unauthenticated, "missing credentials")

	case code == core.ErrorCodeInvalidRequest,
		errors.Is(err, ErrMultipleAuthHeaders),
		errors.Is(err, ErrInvalidAuthFormat),
		errors.Is(err, ErrUnsupportedScheme):
		return status.Error(codes.InvalidArgument, "authorization metadata must be Bearer <token>")

	case errors.Is(err, core.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")

	case errors.Is(err, core.ErrInvalidToken):
		return status.Errorf(codes.Unauthenticated, "invalid token: %s", code)

	case errors.Is(err, core.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, core.ErrAuthProviderUnavailable):
		return status.Error(codes.Unavailable, "identity provider unavailable")

	case errors.Is(err, core.ErrUnexpectedAuthFailure):
		return status.Error(codes.Unauthenticated, "unable to verify token")

	default:
		return status.Error(codes.Internal, "internal error")
	}
}
