// Package grpc provides gRPC server interceptors that authenticate calls
// and attach the caller's authz.AuthContext to the handler context.
//
// # Basic Usage
//
//	interceptor, err := jwtgrpc.New(
//	    jwtgrpc.WithValidator(v),
//	    jwtgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	    jwtgrpc.WithAdminMethods("/market.v1.Admin/ListUsers"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// Seller scopes usually come from the request message, so handlers check
// them directly:
//
//	func (s *server) ListOrders(ctx context.Context, req *pb.ListOrdersRequest) (*pb.Orders, error) {
//	    if err := jwtgrpc.RequireSeller(ctx, req.GetSellerId()); err != nil {
//	        return nil, err
//	    }
//	    ac := jwtgrpc.MustGetAuthContext(ctx)
//	    ...
//	}
//
// # Correlation IDs
//
// The correlation id is read from x-correlation-id, x-request-id or a
// traceparent entry, falling back to the active span and then a new UUID.
// It is sent back in the x-correlation-id response header.
//
// # Status Codes
//
//	Unauthenticated   missing, expired, invalid or unverifiable token
//	InvalidArgument   authorization metadata that is not "Bearer <token>"
//	PermissionDenied  seller or admin check failed
//	Unavailable       the identity provider could not be reached
package grpc
