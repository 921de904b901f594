package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

// JWTInterceptor authenticates gRPC calls and attaches the caller's
// authz.AuthContext to the handler context.
type JWTInterceptor struct {
	core            *core.Core
	tokenExtractor  TokenExtractor
	correlationID   CorrelationIDExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	adminMethods    map[string]bool
	logger          core.Logger
	metrics         core.Metrics

	// Temporary fields used during construction
	validator           core.Validator
	credentialsOptional bool
}

// New creates a new gRPC JWT interceptor with the provided options.
// WithValidator option is required.
func New(opts ...Option) (*JWTInterceptor, error) {
	interceptor := &JWTInterceptor{
		tokenExtractor:  MetadataTokenExtractor,
		correlationID:   DefaultCorrelationIDExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		adminMethods:    make(map[string]bool),
		metrics:         core.NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(interceptor); err != nil {
			return nil, err
		}
	}

	if interceptor.validator == nil {
		return nil, errors.New("validator is required, use WithValidator option")
	}

	coreOpts := []core.Option{
		core.WithValidator(interceptor.validator),
		core.WithCredentialsOptional(interceptor.credentialsOptional),
		core.WithMetrics(interceptor.metrics),
	}
	if interceptor.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(interceptor.logger))
	}
	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, err
	}
	interceptor.core = c

	return interceptor, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that validates JWTs.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping JWT validation for excluded method",
					"method", info.FullMethod)
			}
			return handler(ctx, req)
		}

		validatedCtx, correlationID, err := i.validateRequest(ctx, info.FullMethod)
		// SetHeader fails without a server transport stream.
		_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataCorrelationID, correlationID))
		if err != nil {
			return nil, err
		}

		return handler(validatedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that validates JWTs.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping JWT validation for excluded method",
					"method", info.FullMethod)
			}
			return handler(srv, ss)
		}

		validatedCtx, correlationID, err := i.validateRequest(ss.Context(), info.FullMethod)
		_ = ss.SetHeader(metadata.Pairs(MetadataCorrelationID, correlationID))
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          validatedCtx,
		})
	}
}

// validateRequest extracts and validates the JWT and builds the AuthContext.
func (i *JWTInterceptor) validateRequest(ctx context.Context, method string) (context.Context, string, error) {
	correlationID := i.correlationID(ctx)
	ctx = core.SetCorrelationID(ctx, correlationID)

	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from gRPC metadata",
				"error", err,
				"method", method,
				"correlation_id", correlationID)
		}
		err = core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidRequest, "error extracting token", err)
		return ctx, correlationID, i.errorHandler(err)
	}

	claims, err := i.core.CheckToken(ctx, token)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("JWT validation failed",
				"error", err,
				"code", core.Code(err),
				"method", method,
				"correlation_id", correlationID)
		}
		return ctx, correlationID, i.errorHandler(err)
	}

	if claims == nil {
		if i.adminMethods[method] {
			return ctx, correlationID, i.errorHandler(core.NewValidationError(core.ErrTokenMissing, core.ErrorCodeAuthContextMissing, "authentication required", nil))
		}
		if i.logger != nil {
			i.logger.Debug("no credentials provided, continuing without claims (credentials optional)",
				"method", method)
		}
		return ctx, correlationID, nil
	}

	ac := authz.Build(claims, correlationID)
	ctx = authz.NewContext(core.SetClaims(ctx, claims), ac)

	if i.adminMethods[method] {
		if err := authz.RequireAdmin(ac); err != nil {
			i.metrics.IncCounter(core.MetricAuthorizationDenys, map[string]string{"gate": authz.GateAdmin})
			if i.logger != nil {
				i.logger.Info("authorization denied",
					"gate", authz.GateAdmin,
					"subject", ac.Identity.Subject,
					"method", method,
					"correlation_id", correlationID)
			}
			return ctx, correlationID, i.errorHandler(err)
		}
	}

	return ctx, correlationID, nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context with JWT claims.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
