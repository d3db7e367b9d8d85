// Package observability holds the OpenTelemetry instruments recorded by the
// analysis pipeline and the Prometheus scrape handler.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRepositoriesTotal = "repometrics.repositories.total"
	metricFetchDuration     = "repometrics.fetch.duration.seconds"
	metricAnalyzerDuration  = "repometrics.analyzer.duration.seconds"
	metricAnalyzerFailures  = "repometrics.analyzer.failures.total"
	metricCacheHitsTotal    = "repometrics.cache.hits.total"
	metricInflightPipelines = "repometrics.pipelines.inflight"

	attrState    = "state"
	attrStatus   = "status"
	attrAnalyzer = "analyzer"
	attrKind     = "kind"
	attrUpdated  = "updated"

	// StatusSuccess and StatusFailure label outcome-bearing instruments.
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// durationBucketBoundaries covers 10ms to 600s: a cached analyzer finishes in
// milliseconds while a large clone can take minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RunMetrics holds the instruments recorded by the orchestrator.
// All methods are safe on a nil receiver.
type RunMetrics struct {
	repositories     metric.Int64Counter
	fetchDuration    metric.Float64Histogram
	analyzerDuration metric.Float64Histogram
	analyzerFailures metric.Int64Counter
	cacheHits        metric.Int64Counter
	inflight         metric.Int64UpDownCounter
}

// NewRunMetrics creates the run instruments from mt.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	var (
		rm   RunMetrics
		errs []error
	)

	track := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", name, err))
		}
	}

	seconds := []metric.Float64HistogramOption{
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	}

	var err error

	rm.repositories, err = mt.Int64Counter(metricRepositoriesTotal,
		metric.WithDescription("Repositories by terminal pipeline state"), metric.WithUnit("{repository}"))
	track(metricRepositoriesTotal, err)

	rm.fetchDuration, err = mt.Float64Histogram(metricFetchDuration,
		append(seconds, metric.WithDescription("Snapshot fetch duration in seconds"))...)
	track(metricFetchDuration, err)

	rm.analyzerDuration, err = mt.Float64Histogram(metricAnalyzerDuration,
		append(seconds, metric.WithDescription("Analyzer duration in seconds"))...)
	track(metricAnalyzerDuration, err)

	rm.analyzerFailures, err = mt.Int64Counter(metricAnalyzerFailures,
		metric.WithDescription("Analyzer failures by error kind"), metric.WithUnit("{failure}"))
	track(metricAnalyzerFailures, err)

	rm.cacheHits, err = mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Analyzer outcomes served from the result cache"), metric.WithUnit("{hit}"))
	track(metricCacheHitsTotal, err)

	rm.inflight, err = mt.Int64UpDownCounter(metricInflightPipelines,
		metric.WithDescription("Repository pipelines in flight"), metric.WithUnit("{pipeline}"))
	track(metricInflightPipelines, err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &rm, nil
}

// RecordRepository counts a repository that reached a terminal state.
func (rm *RunMetrics) RecordRepository(ctx context.Context, state string) {
	if rm == nil {
		return
	}

	rm.repositories.Add(ctx, 1, metric.WithAttributes(attribute.String(attrState, state)))
}

// RecordFetch records one fetch attempt.
func (rm *RunMetrics) RecordFetch(ctx context.Context, status string, updated bool, duration time.Duration) {
	if rm == nil {
		return
	}

	rm.fetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrStatus, status),
		attribute.Bool(attrUpdated, updated),
	))
}

// RecordAnalyzer records one analyzer invocation. kind is empty on success.
func (rm *RunMetrics) RecordAnalyzer(ctx context.Context, analyzer, status, kind string, duration time.Duration) {
	if rm == nil {
		return
	}

	rm.analyzerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrAnalyzer, analyzer),
		attribute.String(attrStatus, status),
	))

	if status == StatusFailure {
		rm.analyzerFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrAnalyzer, analyzer),
			attribute.String(attrKind, kind),
		))
	}
}

// RecordCacheHit counts an outcome reused from the result cache.
func (rm *RunMetrics) RecordCacheHit(ctx context.Context, analyzer string) {
	if rm == nil {
		return
	}

	rm.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String(attrAnalyzer, analyzer)))
}

// TrackPipeline increments the in-flight counter and returns its decrement.
func (rm *RunMetrics) TrackPipeline(ctx context.Context) func() {
	if rm == nil {
		return func() {}
	}

	rm.inflight.Add(ctx, 1)

	return func() {
		rm.inflight.Add(ctx, -1)
	}
}
