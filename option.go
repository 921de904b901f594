package marketauth

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/marketauth/core"
)

// Option configures the JWTMiddleware.
// Returns error for validation failures.
type Option func(*JWTMiddleware) error

// WithValidator sets the token validator (REQUIRED). *validator.Validator
// satisfies core.Validator.
//
//	v, err := validator.New(keys,
//	    validator.WithIssuer("https://idp.example.com/realms/market"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mw, err := marketauth.New(marketauth.WithValidator(v))
func WithValidator(v core.Validator) Option {
	return func(m *JWTMiddleware) error {
		if v == nil {
			return ErrValidatorNil
		}
		m.validator = v
		return nil
	}
}

// WithCredentialsOptional sets whether credentials are optional.
// If set to true, a request without a token passes with no AuthContext.
//
// Default: false (credentials required)
func WithCredentialsOptional(value bool) Option {
	return func(m *JWTMiddleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests should have their JWT validated.
//
// Default: true (OPTIONS requests are validated)
func WithValidateOnOptions(value bool) Option {
	return func(m *JWTMiddleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called for authentication and
// authorization failures.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *JWTMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the JWT from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(m *JWTMiddleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithCorrelationIDExtractor sets how the request's correlation id is found.
//
// Default: DefaultCorrelationIDExtractor
func WithCorrelationIDExtractor(e CorrelationIDExtractor) Option {
	return func(m *JWTMiddleware) error {
		if e == nil {
			return ErrCorrelationIDExtractorNil
		}
		m.correlationID = e
		return nil
	}
}

// WithExclusionUrls configures URLs that skip authentication. Entries match
// either the full request URL or its path.
func WithExclusionUrls(exclusions []string) Option {
	return func(m *JWTMiddleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithLogger sets an optional logger for the middleware and its core.
// *slog.Logger satisfies Logger; see NewZapLogger and NewLogrusLogger for
// other backends.
func WithLogger(logger Logger) Option {
	return func(m *JWTMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the sink for validation and authorization counters.
//
// Default: core.NoopMetrics
func WithMetrics(metrics core.Metrics) Option {
	return func(m *JWTMiddleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer for the marketauth.CheckJWT span.
//
// Default: the global OpenTelemetry tracer provider
func WithTracer(tracer trace.Tracer) Option {
	return func(m *JWTMiddleware) error {
		if tracer == nil {
			return ErrTracerNil
		}
		m.tracer = tracer
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrValidatorNil              = errors.New("validator cannot be nil (use WithValidator)")
	ErrErrorHandlerNil           = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil         = errors.New("tokenExtractor cannot be nil")
	ErrCorrelationIDExtractorNil = errors.New("correlationIDExtractor cannot be nil")
	ErrExclusionUrlsEmpty        = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil                 = errors.New("logger cannot be nil")
	ErrMetricsNil                = errors.New("metrics cannot be nil")
	ErrTracerNil                 = errors.New("tracer cannot be nil")
)
