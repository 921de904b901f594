package grpc

import (
	"context"

	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

// GetAuthContext returns the AuthContext attached by the interceptor.
//
//	func (s *server) ListOrders(ctx context.Context, req *pb.ListOrdersRequest) (*pb.Orders, error) {
//	    if err := jwtgrpc.RequireSeller(ctx, req.GetSellerId()); err != nil {
//	        return nil, err
//	    }
//	    ...
//	}
func GetAuthContext(ctx context.Context) (*authz.AuthContext, bool) {
	return authz.FromContext(ctx)
}

// MustGetAuthContext returns the AuthContext or panics.
// Use only when you are certain it exists (e.g., after interceptor has run).
func MustGetAuthContext(ctx context.Context) *authz.AuthContext {
	ac, ok := authz.FromContext(ctx)
	if !ok {
		panic(core.ErrClaimsNotFound)
	}
	return ac
}

// GetClaims returns the verified claims attached by the interceptor.
func GetClaims(ctx context.Context) (core.Claims, error) {
	return core.GetClaims(ctx)
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}

// RequireSeller returns a PermissionDenied status unless the caller holds
// the seller scope sellerID, and Unauthenticated when there is no caller.
func RequireSeller(ctx context.Context, sellerID string) error {
	ac, ok := authz.FromContext(ctx)
	if !ok {
		return DefaultErrorHandler(core.ErrTokenMissing)
	}
	return DefaultErrorHandler(authz.RequireSeller(ac, sellerID))
}

// RequireAdmin returns a PermissionDenied status unless the caller is a
// realm administrator.
func RequireAdmin(ctx context.Context) error {
	ac, ok := authz.FromContext(ctx)
	if !ok {
		return DefaultErrorHandler(core.ErrTokenMissing)
	}
	return DefaultErrorHandler(authz.RequireAdmin(ac))
}
