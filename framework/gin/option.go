package jwtgin

import (
	"github.com/gin-gonic/gin"

	"github.com/tradepost/marketauth"
)

// Option defines a functional option for configuring the middleware
type Option func(*middlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware. The
// handler must abort the context.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *middlewareConfig) {
		config.errorHandler = handler
	}
}

// WithTokenExtractor sets a custom token extractor.
func WithTokenExtractor(extractor marketauth.TokenExtractor) Option {
	return WithMiddlewareOptions(marketauth.WithTokenExtractor(extractor))
}

// WithMiddlewareOptions forwards options to the underlying marketauth
// middleware, such as WithLogger, WithMetrics or WithCredentialsOptional.
func WithMiddlewareOptions(opts ...marketauth.Option) Option {
	return func(config *middlewareConfig) {
		config.opts = append(config.opts, opts...)
	}
}
