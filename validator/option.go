package validator

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/marketauth/core"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithIssuer sets the expected issuer claim (iss). This is a required option.
//
// Tokens with a different issuer are rejected as core.ErrInvalidToken.
func WithIssuer(issuerURL string) Option {
	return func(v *Validator) error {
		if issuerURL == "" {
			return errors.New("issuer cannot be empty")
		}
		if _, err := url.Parse(issuerURL); err != nil {
			return fmt.Errorf("invalid issuer URL: %w", err)
		}
		v.issuer = issuerURL
		return nil
	}
}

// WithAlgorithms restricts the algorithms tokens may declare. The default is
// every supported asymmetric algorithm; HS256/384/512 are only accepted when
// listed here, and only against "oct" keys.
func WithAlgorithms(algorithms ...SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if len(algorithms) == 0 {
			return errors.New("at least one algorithm is required")
		}
		for _, alg := range algorithms {
			if _, ok := keyTypes[alg]; !ok {
				return fmt.Errorf("unsupported signature algorithm: %s", alg)
			}
		}
		v.algorithms = append([]SignatureAlgorithm(nil), algorithms...)
		return nil
	}
}

// WithAllowedClockSkew sets the allowed clock skew for exp, nbf and iat.
// If not set, the default is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.clockSkew = skew
		return nil
	}
}

// WithKeySetMaxAge sets how long a loaded key set is used before it is read
// again through the KeyProvider. It should not exceed the shared cache TTL;
// the default matches jwks.DefaultCacheTTL.
func WithKeySetMaxAge(maxAge time.Duration) Option {
	return func(v *Validator) error {
		if maxAge <= 0 {
			return errors.New("key set max age must be positive")
		}
		v.maxAge = maxAge
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger core.Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

// WithTracer overrides the OpenTelemetry tracer, which otherwise comes from
// the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(v *Validator) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		v.tracer = tracer
		return nil
	}
}
