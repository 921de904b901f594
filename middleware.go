package marketauth

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

// Logger is the slog-compatible logger accepted across the module.
type Logger = core.Logger

// JWTMiddleware authenticates HTTP requests and attaches the caller's
// authz.AuthContext to the request context.
type JWTMiddleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	correlationID       CorrelationIDExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             core.Metrics
	tracer              trace.Tracer

	// Temporary fields used during construction
	validator           core.Validator
	credentialsOptional bool
}

// ExclusionURLHandler reports whether r skips authentication.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a JWTMiddleware. WithValidator is required.
//
//	mw, err := marketauth.New(
//	    marketauth.WithValidator(v),
//	    marketauth.WithLogger(marketauth.NewZapLogger(zapLogger)),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*JWTMiddleware, error) {
	m := &JWTMiddleware{
		validateOnOptions:   true,
		credentialsOptional: false,
		metrics:             core.NoopMetrics{},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.validator == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrValidatorNil)
	}

	m.applyDefaults()

	if err := m.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return m, nil
}

func (m *JWTMiddleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}
	if m.correlationID == nil {
		m.correlationID = DefaultCorrelationIDExtractor
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
}

func (m *JWTMiddleware) createCore() error {
	coreOpts := []core.Option{
		core.WithValidator(m.validator),
		core.WithCredentialsOptional(m.credentialsOptional),
		core.WithMetrics(m.metrics),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	m.core = c
	return nil
}

// GetClaims returns the verified claims stored by CheckJWT.
func GetClaims(ctx context.Context) (core.Claims, error) {
	return core.GetClaims(ctx)
}

// GetAuthContext returns the AuthContext stored by CheckJWT.
func GetAuthContext(ctx context.Context) (*authz.AuthContext, bool) {
	return authz.FromContext(ctx)
}

// MustGetAuthContext returns the AuthContext stored by CheckJWT or panics.
// Use only behind CheckJWT with credentials required.
func MustGetAuthContext(ctx context.Context) *authz.AuthContext {
	ac, ok := authz.FromContext(ctx)
	if !ok {
		panic(core.ErrClaimsNotFound)
	}
	return ac
}

// CheckJWT authenticates the request and calls next with the verified claims
// and AuthContext in the request context. The correlation id is echoed in
// the X-Correlation-ID response header.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping JWT validation for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			if m.logger != nil {
				m.logger.Debug("skipping JWT validation for OPTIONS request")
			}
			next.ServeHTTP(w, r)
			return
		}

		correlationID := m.correlationID(r)
		w.Header().Set(HeaderCorrelationID, correlationID)

		ctx, span := m.tracer.Start(r.Context(), "marketauth.CheckJWT",
			trace.WithAttributes(attribute.String("correlation_id", correlationID)))
		defer span.End()
		ctx = core.SetCorrelationID(ctx, correlationID)
		r = r.WithContext(ctx)

		token, err := m.tokenExtractor(r)
		if err != nil {
			// An extractor error means a credential was sent in the wrong
			// shape, not that it was missing.
			if m.logger != nil {
				m.logger.Warn("failed to extract token from request",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"correlation_id", correlationID)
			}
			err = core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidRequest, "error extracting token", err)
			span.SetStatus(codes.Error, core.ErrorCodeInvalidRequest)
			m.errorHandler(w, r, err)
			return
		}

		claims, err := m.core.CheckToken(ctx, token)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("JWT validation failed",
					"error", err,
					"code", core.Code(err),
					"method", r.Method,
					"path", r.URL.Path,
					"correlation_id", correlationID)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, core.Code(err))
			m.errorHandler(w, r, err)
			return
		}

		if claims == nil {
			if m.logger != nil {
				m.logger.Debug("no credentials provided, continuing without claims (credentials optional)")
			}
			next.ServeHTTP(w, r)
			return
		}

		ac := authz.Build(claims, correlationID)
		span.SetAttributes(attribute.String("auth.subject", ac.Identity.Subject))

		ctx = core.SetClaims(ctx, claims)
		ctx = authz.NewContext(ctx, ac)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
