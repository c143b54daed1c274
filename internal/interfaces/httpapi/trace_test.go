package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTracesSpan(t *testing.T) {
	t.Parallel()

	traced := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x42},
		SpanID:  trace.SpanID{0x01},
	}))

	tests := []struct {
		name     string
		ctx      context.Context
		spanName string
		want     bool
	}{
		{name: "handler under request span", ctx: traced, spanName: "httpapi.Handler.GetLatest", want: true},
		{name: "handler on filtered route", ctx: context.Background(), spanName: "httpapi.Handler.Healthz", want: false},
		{name: "middleware", ctx: traced, spanName: "httpapi.RequireAdminToken", want: false},
		{name: "helper", ctx: traced, spanName: "httpapi.writeJSON", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tracesSpan(tt.ctx, tt.spanName); got != tt.want {
				t.Fatalf("tracesSpan(%q)=%v want=%v", tt.spanName, got, tt.want)
			}
		})
	}
}
