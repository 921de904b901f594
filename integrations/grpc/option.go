package grpc

import (
	"errors"

	"github.com/tradepost/marketauth/core"
)

// Option configures the JWT interceptor.
type Option func(*JWTInterceptor) error

// WithValidator sets the token validator (REQUIRED). *validator.Validator
// implements core.Validator.
//
//	interceptor, _ := grpc.New(
//	    grpc.WithValidator(v),
//	    grpc.WithLogger(logger),
//	    grpc.WithAdminMethods("/market.v1.Admin/ListUsers"),
//	)
func WithValidator(v core.Validator) Option {
	return func(i *JWTInterceptor) error {
		if v == nil {
			return errors.New("validator cannot be nil")
		}
		i.validator = v
		return nil
	}
}

// WithCredentialsOptional allows calls without a token to proceed without
// an AuthContext.
//
// Default: false (credentials required)
func WithCredentialsOptional(optional bool) Option {
	return func(i *JWTInterceptor) error {
		i.credentialsOptional = optional
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor and its core.
func WithLogger(logger core.Logger) Option {
	return func(i *JWTInterceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithMetrics records validation outcomes and authorization denials.
func WithMetrics(metrics core.Metrics) Option {
	return func(i *JWTInterceptor) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		i.metrics = metrics
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor function.
// Default is MetadataTokenExtractor which extracts from "authorization" metadata.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *JWTInterceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithCorrelationIDExtractor replaces DefaultCorrelationIDExtractor.
func WithCorrelationIDExtractor(extractor CorrelationIDExtractor) Option {
	return func(i *JWTInterceptor) error {
		if extractor == nil {
			return errors.New("correlation id extractor cannot be nil")
		}
		i.correlationID = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler function.
// Default is DefaultErrorHandler which maps errors to gRPC status codes.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *JWTInterceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods excludes specific gRPC methods from JWT validation.
// Methods should be provided in the format: "/package.Service/Method"
// Example: "/grpc.health.v1.Health/Check"
func WithExcludedMethods(methods ...string) Option {
	return func(i *JWTInterceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}

// WithAdminMethods restricts the given methods to realm administrators.
func WithAdminMethods(methods ...string) Option {
	return func(i *JWTInterceptor) error {
		for _, method := range methods {
			i.adminMethods[method] = true
		}
		return nil
	}
}
