package marketauth

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tradepost/marketauth"

// traceIDFromContext returns the trace id of the active span.
func traceIDFromContext(ctx context.Context) (string, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return "", false
	}
	return sc.TraceID().String(), true
}

// traceIDFromHeaders returns the trace id of a valid W3C traceparent header.
func traceIDFromHeaders(h http.Header) (string, bool) {
	ctx := propagation.TraceContext{}.Extract(context.Background(), propagation.HeaderCarrier(h))
	return traceIDFromContext(ctx)
}
