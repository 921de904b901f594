package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

// Metadata keys read by the default extractors. gRPC lowercases incoming keys.
const (
	MetadataAuthorization = "authorization"
	MetadataCorrelationID = "x-correlation-id"
	MetadataRequestID     = "x-request-id"
)

// TokenExtractor extracts JWT tokens from gRPC metadata.
type TokenExtractor func(ctx context.Context) (string, error)

// CorrelationIDExtractor returns the correlation id for an incoming call.
// It must not return an empty string.
type CorrelationIDExtractor func(ctx context.Context) string

// Extractor errors
var (
	// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
	ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

	// ErrInvalidAuthFormat indicates the authorization metadata format is invalid.
	ErrInvalidAuthFormat = errors.New("invalid authorization metadata format, expected: Bearer <token>")

	// ErrUnsupportedScheme indicates an unsupported authorization scheme was used.
	ErrUnsupportedScheme = errors.New("unsupported authorization scheme, expected: Bearer")
)

// MetadataTokenExtractor extracts JWT from the "authorization" metadata key
// in the "Bearer <token>" format. No metadata or no key is not an error.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	authHeaders := md.Get(MetadataAuthorization)
	if len(authHeaders) == 0 {
		return "", nil
	}
	if len(authHeaders) > 1 {
		return "", ErrMultipleAuthHeaders
	}

	parts := strings.Fields(authHeaders[0])
	if len(parts) != 2 {
		return "", ErrInvalidAuthFormat
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", ErrUnsupportedScheme
	}

	return parts[1], nil
}

// DefaultCorrelationIDExtractor takes the first non-blank of x-correlation-id,
// x-request-id, the trace id of a traceparent entry and the trace id of the
// active span. Otherwise it generates a UUID.
func DefaultCorrelationIDExtractor(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, key := range []string{MetadataCorrelationID, MetadataRequestID} {
			if values := md.Get(key); len(values) > 0 {
				if id := strings.TrimSpace(values[0]); id != "" {
					return id
				}
			}
		}

		remote := trace.SpanContextFromContext(
			propagation.TraceContext{}.Extract(context.Background(), metadataCarrier(md)),
		)
		if remote.HasTraceID() {
			return remote.TraceID().String()
		}
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return uuid.NewString()
}

// metadataCarrier adapts metadata.MD to propagation.TextMapCarrier.
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if values := metadata.MD(c).Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
