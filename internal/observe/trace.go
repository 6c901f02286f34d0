package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the Lectara tracer.
const tracerName = "github.com/lectara/lectara"

// Tracer returns the package-level [trace.Tracer]. It uses the globally
// registered [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span and returns the updated context and span. The
// caller must call span.End() when done.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartAttemptSpan opens the span covering one practice attempt, from the
// moment the microphone goes live through the scoring verdict. The sentence's
// global index and page identify what was being read.
func StartAttemptSpan(ctx context.Context, sentenceIndex, page int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "practice.attempt", trace.WithAttributes(
		attribute.Int("sentence.index", sentenceIndex),
		attribute.Int("sentence.page", page),
	))
}

// EndAttemptSpan records the attempt's outcome on span and ends it. A non-nil
// err marks the span failed; stopReason and status describe how the recording
// ended and how it was judged. A nil span is ignored, so callers need not
// track whether an attempt span was ever opened.
func EndAttemptSpan(span trace.Span, stopReason, status string, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String("attempt.stop_reason", stopReason),
		attribute.String("attempt.status", status),
	)
	span.End()
}

// CorrelationID extracts the trace ID from the OTel span context in ctx.
// Returns the empty string when no active span with a valid trace ID exists.
// The trace ID doubles as the correlation identifier exposed to clients via
// the X-Correlation-ID header.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns an [slog.Logger] enriched with trace_id and span_id from
// the OTel span context in ctx. When no active span is present, the returned
// logger is the default slog logger without extra attributes.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
