// Package tracing provides OpenTelemetry spans around memoized calls. It is
// entirely optional: tracing is only active when a [TracingConfig] is wired
// in via the WithTracing option.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/Keksclan/goRawrMemo/tracing"

// Outcome describes how a memoized call was resolved.
type Outcome string

const (
	OutcomeHit             Outcome = "hit"
	OutcomeStored          Outcome = "stored"
	OutcomeRejectedEntries Outcome = "rejected_entries"
	OutcomeRejectedMemory  Outcome = "rejected_memory"
	OutcomeShared          Outcome = "shared"
	OutcomeError           Outcome = "error"
)

// TracingConfig holds the OpenTelemetry configuration used for memo spans.
type TracingConfig struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider
}

// tracer returns a configured [trace.Tracer].
func (c *TracingConfig) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentation)
}

// Start opens an internal span named "memo.Call" for the memo called name.
// If cfg is nil the returned span is non-recording and ctx is unchanged.
func Start(ctx context.Context, cfg *TracingConfig, name string) (context.Context, trace.Span) {
	if cfg == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	ctx, span := cfg.tracer().Start(ctx, "memo.Call", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("memo.name", name))
	return ctx, span
}

// SetKeyHash attaches the call's key fingerprint.
func SetKeyHash(span trace.Span, hash uint64) {
	span.SetAttributes(attribute.String("memo.key_hash", fmt.Sprintf("%016x", hash)))
}

// RecordOutcome sets the outcome attribute and the span status.
func RecordOutcome(span trace.Span, outcome Outcome, err error) {
	span.SetAttributes(attribute.String("memo.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
