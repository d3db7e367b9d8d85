package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// BuildResource exposes buildResource to tests.
func BuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// RecordRun starts a run span with one child span under the sampler used
// for ratio and returns what the exporter received.
func RecordRun(ratio float64, runID string) tracetest.SpanStubs {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(runSampler(ratio)),
	)

	ctx, run := StartRun(context.Background(), tp.Tracer("test"), runID)
	_, child := tp.Tracer("test").Start(ctx, "repometrics.repository")
	child.End()
	run.End()

	spans := exporter.GetSpans()
	_ = tp.Shutdown(context.Background())

	return spans
}
