package jwtecho

import (
	"github.com/labstack/echo/v4"

	"github.com/tradepost/marketauth"
)

// Option is a function that configures the middleware
type Option func(*middlewareConfig)

// WithErrorHandler sets a custom error handler. A non-nil return value is
// passed to the Echo HTTP error handler.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *middlewareConfig) {
		config.errorHandler = handler
	}
}

// WithTokenExtractor sets a custom token extractor
func WithTokenExtractor(extractor marketauth.TokenExtractor) Option {
	return WithMiddlewareOptions(marketauth.WithTokenExtractor(extractor))
}

// WithMiddlewareOptions forwards options to the underlying marketauth
// middleware.
func WithMiddlewareOptions(opts ...marketauth.Option) Option {
	return func(config *middlewareConfig) {
		config.opts = append(config.opts, opts...)
	}
}
