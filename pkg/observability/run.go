package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttrRunID is the span attribute and log key carrying the run ID.
const AttrRunID = "run_id"

type runIDKey struct{}

// StartRun opens the root span of a run and binds runID to the returned
// context. Records logged with that context carry the run ID, and spans
// started from it belong to the run's trace. A nil tracer uses the global
// provider.
func StartRun(ctx context.Context, tracer trace.Tracer, runID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	ctx = context.WithValue(ctx, runIDKey{}, runID)

	attrs = append([]attribute.KeyValue{attribute.String("repometrics."+AttrRunID, runID)}, attrs...)

	return tracer.Start(ctx, "repometrics.run",
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RunID returns the run ID bound by StartRun, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)

	return id
}
