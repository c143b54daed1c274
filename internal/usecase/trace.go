package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer = otel.Tracer("soccer-livescore/internal/usecase")
	untracedSpan  = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan opens a child span only when ctx already carries a trace.
// Timer-driven polls have no parent and stay untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, untracedSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
