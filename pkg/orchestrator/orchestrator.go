// Package orchestrator runs the fetch and analyze pipeline for a set of
// repositories with bounded concurrency.
//
// One unit of work is the whole pipeline of one repository: fetch the
// snapshot, collect its files once, run every selected analyzer against that
// shared input and record exactly one outcome per analyzer. Failures are
// recorded in the repository's result and never abort the run.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/repometrics/internal/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/resultcache"
)

// tracerName is the default OTel tracer name for the orchestrator.
const tracerName = "repometrics"

// DefaultWorkers is the pool size used when Options.Workers is not positive.
const DefaultWorkers = 4

// Fetcher produces repository snapshots. *fetch.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, ref model.RepositoryRef) (model.RepositorySnapshot, error)
	Release(snapshot model.RepositorySnapshot) error
}

// Options configures an Orchestrator. The zero value is usable.
type Options struct {
	// Workers bounds the number of repository pipelines in flight.
	Workers int
	// Timeout bounds each analyzer invocation. Zero disables it.
	Timeout time.Duration
	// Files controls exclusion and the size limit of the shared file list.
	Files fileset.Options

	// Cache, when set, serves outcomes recorded for the same revision and
	// Fingerprint instead of running the analyzer again.
	Cache       *resultcache.Cache
	Fingerprint string

	Observer Observer
	Metrics  *observability.RunMetrics
	// Tracer falls back to otel.Tracer("repometrics") when nil.
	Tracer trace.Tracer
	Logger *slog.Logger
}

// Result is what a run produced. Repositories keeps the input order of the
// pipelines that started; NotStarted lists, in input order, the
// repositories skipped after cancellation.
type Result struct {
	Repositories []model.RepositoryAnalysisResult
	NotStarted   []model.RepositoryRef
	Cancelled    bool
}

// Orchestrator drives repository pipelines.
type Orchestrator struct {
	fetcher   Fetcher
	analyzers []analyze.Analyzer
	ids       []model.AnalyzerID
	opts      Options
	tracer    trace.Tracer
	logger    *slog.Logger
}

// New creates an Orchestrator running the analyzers of registry.
func New(fetcher Fetcher, registry *analyze.Registry, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		fetcher:   fetcher,
		analyzers: registry.Analyzers(),
		ids:       registry.IDs(),
		opts:      opts,
		tracer:    tracer,
		logger:    logger,
	}
}

// Analyzers returns the IDs of the analyzers every repository runs.
func (o *Orchestrator) Analyzers() []model.AnalyzerID {
	return append([]model.AnalyzerID(nil), o.ids...)
}

// Run processes refs and returns once every started pipeline has reached a
// terminal state. Cancelling ctx stops new pipelines from starting; those in
// flight observe the cancellation and finish with failure outcomes.
func (o *Orchestrator) Run(ctx context.Context, refs []model.RepositoryRef) Result {
	slots := make([]*model.RepositoryAnalysisResult, len(refs))

	var g errgroup.Group

	g.SetLimit(o.opts.Workers)

	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// A slot may free up only after cancellation.
			if ctx.Err() != nil {
				return nil
			}

			result := o.pipeline(ctx, ref)
			slots[i] = &result

			return nil
		})
	}

	_ = g.Wait()

	res := Result{Repositories: make([]model.RepositoryAnalysisResult, 0, len(refs))}

	for i, slot := range slots {
		if slot == nil {
			res.NotStarted = append(res.NotStarted, refs[i])

			continue
		}

		res.Repositories = append(res.Repositories, *slot)
	}

	res.Cancelled = ctx.Err() != nil || len(res.NotStarted) > 0

	if len(res.NotStarted) > 0 {
		o.logger.WarnContext(ctx, "run cancelled", "not_started", len(res.NotStarted))
	}

	return res
}

func (o *Orchestrator) pipeline(ctx context.Context, ref model.RepositoryRef) model.RepositoryAnalysisResult {
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "repometrics.repository",
		trace.WithAttributes(attribute.String("repository", ref.FullName())))
	defer span.End()

	defer o.opts.Metrics.TrackPipeline(ctx)()

	p := &progress{o: o, ref: ref, result: model.RepositoryAnalysisResult{
		Ref:      ref,
		State:    model.StatePending,
		Outcomes: map[model.AnalyzerID]model.AnalyzerOutcome{},
	}}

	defer func() {
		p.result.DurationMS = time.Since(start).Milliseconds()
		o.opts.Metrics.RecordRepository(ctx, string(p.result.State))
		span.SetAttributes(attribute.String("state", string(p.result.State)))
	}()

	p.advance(ctx, model.StateFetching)

	snapshot, ok := o.fetch(ctx, p, span)
	if !ok {
		p.advance(ctx, model.StateFetchFailed)

		return p.result
	}

	defer o.release(ctx, snapshot)

	p.advance(ctx, model.StateAnalyzing)
	o.analyze(ctx, p, snapshot)
	p.advance(ctx, model.StateAggregating)
	p.advance(ctx, model.StateDone)

	return p.result
}

func (o *Orchestrator) fetch(ctx context.Context, p *progress, span trace.Span) (model.RepositorySnapshot, bool) {
	start := time.Now()

	snapshot, err := o.fetcher.Fetch(ctx, p.ref)
	if err != nil {
		kind := model.KindOf(err, model.KindFetchNetwork)

		p.result.Fetch = model.FetchOutcome{
			Status:    model.StatusFailure,
			ErrorKind: kind,
			Message:   err.Error(),
		}

		o.opts.Metrics.RecordFetch(ctx, observability.StatusFailure, false, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		o.logger.WarnContext(ctx, "fetch failed",
			"repository", p.ref.FullName(), "kind", kind, "error", err)

		return model.RepositorySnapshot{}, false
	}

	p.result.Fetch = model.FetchOutcome{
		Status:     model.StatusSuccess,
		RevisionID: snapshot.RevisionID,
		Updated:    snapshot.Updated,
	}

	o.opts.Metrics.RecordFetch(ctx, observability.StatusSuccess, snapshot.Updated, time.Since(start))
	span.SetAttributes(attribute.String("revision", snapshot.RevisionID))

	return snapshot, true
}

func (o *Orchestrator) release(ctx context.Context, snapshot model.RepositorySnapshot) {
	if err := o.fetcher.Release(snapshot); err != nil {
		o.logger.WarnContext(ctx, "release snapshot",
			"repository", snapshot.Ref.FullName(), "error", err)
	}
}

// analyze runs every analyzer concurrently against one shared file list and
// records one outcome per analyzer.
func (o *Orchestrator) analyze(ctx context.Context, p *progress, snapshot model.RepositorySnapshot) {
	files, stats, err := fileset.Collect(ctx, snapshot.LocalRootPath, o.opts.Files)
	if err != nil {
		kind := model.KindAnalyzerInternal
		if ctx.Err() != nil {
			kind = model.KindAnalyzerTimeout
		}

		o.logger.WarnContext(ctx, "collect files",
			"repository", p.ref.FullName(), "error", err)

		for _, a := range o.analyzers {
			p.result.Outcomes[a.ID()] = model.Failure(a.ID(), kind, "collect files: "+err.Error())
			o.notifyAnalyzer(ctx, p.ref, a.ID(), model.AnalyzerFailed)
		}

		return
	}

	o.logger.DebugContext(ctx, "files collected",
		"repository", p.ref.FullName(), "kept", stats.Kept, "excluded", stats.Excluded,
		"vendored", stats.Vendored, "oversize", stats.Oversize)

	in := analyze.Input{Snapshot: snapshot, Files: files}
	outcomes := make([]model.AnalyzerOutcome, len(o.analyzers))

	var wg sync.WaitGroup

	for i, a := range o.analyzers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			outcomes[i] = o.runAnalyzer(ctx, a, in)
		}()
	}

	wg.Wait()

	for i, a := range o.analyzers {
		p.result.Outcomes[a.ID()] = outcomes[i]
	}
}

func (o *Orchestrator) runAnalyzer(ctx context.Context, a analyze.Analyzer, in analyze.Input) model.AnalyzerOutcome {
	id := a.ID()
	ref := in.Snapshot.Ref

	o.notifyAnalyzer(ctx, ref, id, model.AnalyzerRunning)

	key := resultcache.Key{
		Repository:  ref.Key(),
		Revision:    in.Snapshot.RevisionID,
		Analyzer:    id,
		Fingerprint: o.opts.Fingerprint,
	}

	if out, ok := o.opts.Cache.Get(key); ok {
		o.opts.Metrics.RecordCacheHit(ctx, string(id))
		o.notifyAnalyzer(ctx, ref, id, model.AnalyzerSucceeded)

		return out
	}

	ctx, span := o.tracer.Start(ctx, "repometrics.analyzer."+string(id),
		trace.WithAttributes(attribute.String("repository", ref.FullName())))
	defer span.End()

	start := time.Now()
	out := analyze.Run(ctx, a, in, o.opts.Timeout)
	elapsed := time.Since(start)

	if !out.Succeeded() {
		o.opts.Metrics.RecordAnalyzer(ctx, string(id), observability.StatusFailure, string(out.ErrorKind), elapsed)
		span.SetStatus(codes.Error, string(out.ErrorKind))
		o.logger.WarnContext(ctx, "analyzer failed",
			"repository", ref.FullName(), "analyzer", id, "kind", out.ErrorKind, "error", out.Message)
		o.notifyAnalyzer(ctx, ref, id, model.AnalyzerFailed)

		return out
	}

	o.opts.Metrics.RecordAnalyzer(ctx, string(id), observability.StatusSuccess, "", elapsed)

	if err := o.opts.Cache.Put(key, out); err != nil {
		o.logger.WarnContext(ctx, "cache analyzer outcome",
			"repository", ref.FullName(), "analyzer", id, "error", err)
	}

	o.notifyAnalyzer(ctx, ref, id, model.AnalyzerSucceeded)

	return out
}

func (o *Orchestrator) notifyAnalyzer(ctx context.Context, ref model.RepositoryRef, id model.AnalyzerID, state model.AnalyzerState) {
	if o.opts.Observer != nil {
		o.opts.Observer.AnalyzerStateChanged(ctx, ref, id, state)
	}
}

// progress tracks the pipeline state of one repository.
type progress struct {
	o      *Orchestrator
	ref    model.RepositoryRef
	result model.RepositoryAnalysisResult
}

func (p *progress) advance(ctx context.Context, next model.PipelineState) {
	from := p.result.State
	if !from.CanTransition(next) {
		p.o.logger.ErrorContext(ctx, "invalid pipeline transition",
			"repository", p.ref.FullName(), "from", from, "to", next)

		return
	}

	p.result.State = next

	if p.o.opts.Observer != nil {
		p.o.opts.Observer.RepositoryStateChanged(ctx, p.ref, from, next)
	}
}
