package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span helpers shared by the REST layer and the services.

// StartHTTPSpan opens a server span for an incoming request.
func StartHTTPSpan(ctx context.Context, tracer trace.Tracer, method, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.target", path),
		))
}

// StartEngineSpan opens an internal span around one engine operation, tagged
// with the document it touches.
func StartEngineSpan(ctx context.Context, tracer trace.Tracer, component, operation, documentID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, fmt.Sprintf("%s.%s", component, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("engine.component", component),
			attribute.String("engine.operation", operation),
			attribute.String("document.id", documentID),
		))
}

// WithSpanError records the error and flips the span status when err is set.
func WithSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
