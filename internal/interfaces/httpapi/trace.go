package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer    = otel.Tracer("soccer-livescore/internal/interfaces/httpapi")
	untracedSpan = trace.SpanFromContext(context.Background())
)

// startSpan opens handler spans under the request span. Middleware and
// helpers, and requests the otelhttp filter skipped, get untracedSpan.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !tracesSpan(ctx, name) {
		return ctx, untracedSpan
	}
	return apiTracer.Start(ctx, name)
}

func tracesSpan(ctx context.Context, name string) bool {
	return strings.HasPrefix(name, handlerSpanPrefix) && trace.SpanContextFromContext(ctx).IsValid()
}
