package core

import (
	"context"
	"time"
)

// Claims is the decoded, verified claim set of a bearer token. It is returned
// exactly as the identity provider issued it; normalization happens in authz.
type Claims map[string]any

// String returns the claim named key when it is a string.
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Validator validates a raw bearer token and returns its claims.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives counters and timings from the validation pipeline.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) IncCounter(string, map[string]string)                 {}
func (NoopMetrics) ObserveHistogram(string, float64, map[string]string) {}

// Metric names emitted by this module.
const (
	MetricTokenValidations   = "marketauth_token_validations_total"
	MetricValidationSeconds  = "marketauth_token_validation_seconds"
	MetricJWKSFetches        = "marketauth_jwks_fetches_total"
	MetricJWKSCacheLookups   = "marketauth_jwks_cache_lookups_total"
	MetricAuthorizationDenys = "marketauth_authorization_denials_total"
)

// Core is the framework-agnostic token check engine wrapped by the HTTP and
// gRPC adapters.
type Core struct {
	validator           Validator
	credentialsOptional bool
	logger              Logger
	metrics             Metrics
}

// CheckToken validates a token string and returns the verified claims.
//
//   - If token is empty and credentialsOptional is true, returns (nil, nil)
//   - If token is empty and credentialsOptional is false, returns ErrTokenMissing
//   - Otherwise, validates the token using the configured validator
func (c *Core) CheckToken(ctx context.Context, token string) (Claims, error) {
	if token == "" {
		if c.credentialsOptional {
			if c.logger != nil {
				c.logger.Debug("No token provided, but credentials are optional")
			}
			return nil, nil
		}

		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}

		return nil, NewValidationError(ErrTokenMissing, ErrorCodeTokenMissing, "bearer token is required", nil)
	}

	start := time.Now()
	claims, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = Code(err)
		if outcome == "" {
			outcome = ErrorCodeUnexpected
		}
	}
	c.metrics.IncCounter(MetricTokenValidations, map[string]string{"outcome": outcome})
	c.metrics.ObserveHistogram(MetricValidationSeconds, duration.Seconds(), map[string]string{"outcome": outcome})

	if err != nil {
		if c.logger != nil {
			c.logger.Error("Token validation failed", "error", err, "code", outcome, "duration", duration)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("Token validated successfully", "duration", duration)
	}

	return claims, nil
}
