// Package commands implements CLI command handlers for repometrics.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	iobs "github.com/Sumatoshi-tech/repometrics/internal/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/aggregate"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers"
	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/exclude"
	"github.com/Sumatoshi-tech/repometrics/pkg/fetch"
	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/orchestrator"
	"github.com/Sumatoshi-tech/repometrics/pkg/resultcache"
	"github.com/Sumatoshi-tech/repometrics/pkg/runctx"
	"github.com/Sumatoshi-tech/repometrics/pkg/source"
	"github.com/Sumatoshi-tech/repometrics/pkg/version"
)

// Runner composes the resolve, fetch, analyze and aggregate stages of a run
// from a validated configuration.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *iobs.RunMetrics
	httpClient *http.Client
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer sets the tracer for repository and analyzer spans.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tracer }
}

// WithRunMetrics records run metrics into m.
func WithRunMetrics(m *iobs.RunMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithHTTPClient overrides the client used for the hosting API.
func WithHTTPClient(client *http.Client) RunnerOption {
	return func(r *Runner) { r.httpClient = client }
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg *config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{cfg: cfg, logger: slog.Default()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run resolves spec and analyzes every repository with the analyzers ids.
// The returned error is always run-fatal; per-repository failures are
// reported inside the result.
func (r *Runner) Run(ctx context.Context, spec source.Spec, ids []model.AnalyzerID) (model.RunResult, error) {
	registry, err := analyzers.Select(ids)
	if err != nil {
		return model.RunResult{}, model.NewError(model.KindConfigInvalid, "select analyzers",
			fmt.Errorf("%w: %w", model.ErrConfigInvalid, err))
	}

	files, fingerprint, err := r.fileOptions()
	if err != nil {
		return model.RunResult{}, err
	}

	rc := runctx.New(r.cfg.CloneDirectory, nil, r.logger)

	ctx, span := observability.StartRun(ctx, r.tracer, rc.ID, attribute.String("repometrics.source", spec.Type))
	defer span.End()

	resolver, err := source.New(rc, source.Options{
		APIURL:         r.cfg.GitHub.APIURL,
		CloneURL:       r.cfg.GitHub.CloneURL,
		Token:          r.cfg.GitHub.Token,
		MaxAttempts:    r.cfg.GitHub.MaxAttempts,
		InitialBackoff: r.cfg.GitHub.InitialBackoff,
		MaxBackoff:     r.cfg.GitHub.MaxBackoff,
		HTTPClient:     r.httpClient,
	})
	if err != nil {
		return model.RunResult{}, err
	}

	refs, err := resolver.Resolve(ctx, spec)
	if err != nil {
		return model.RunResult{}, fmt.Errorf("resolve repositories: %w", err)
	}

	fetcher := fetch.New(rc,
		fetch.WithToken(r.cfg.GitHub.Token),
		fetch.WithRetainSnapshots(r.cfg.Fetch.RetainSnapshots),
	)

	opts := orchestrator.Options{
		Workers:  r.cfg.Pipeline.Workers,
		Timeout:  r.cfg.Analysis.Timeout,
		Files:    files,
		Observer: orchestrator.LogObserver{Logger: rc.Logger},
		Metrics:  r.metrics,
		Tracer:   r.tracer,
		Logger:   rc.Logger,
	}

	if r.cfg.Cache.Enabled {
		opts.Cache = resultcache.New(r.cfg.CacheDirectory())
		opts.Fingerprint = fingerprint
	}

	orch := orchestrator.New(fetcher, registry, opts)
	res := orch.Run(ctx, refs)

	run := aggregate.BuildRunResult(rc.ID, time.Now().UTC(), orch.Analyzers(),
		res.Repositories, res.NotStarted, res.Cancelled, aggregate.Options{TopN: r.cfg.Analysis.TopN})

	span.SetAttributes(
		attribute.Int("repometrics.repositories", run.Summary.TotalRepositories),
		attribute.Int("repometrics.fetch_failed", run.Summary.FetchFailed),
		attribute.Bool("repometrics.cancelled", run.Cancelled),
	)

	finished := []any{
		"repositories", run.Summary.TotalRepositories,
		"fetch_failed", run.Summary.FetchFailed,
		"cancelled", run.Cancelled,
		"rate_limited", rc.Limiter.Limited(),
		"duration", time.Since(rc.StartedAt).Round(time.Millisecond).String(),
	}

	if remaining, ok := rc.Limiter.Remaining(); ok {
		finished = append(finished, "api_requests_remaining", remaining)
	}

	rc.Logger.InfoContext(ctx, "run finished", finished...)

	return run, nil
}

// AnalyzeRepositories runs the pipeline over an explicit repository list.
// Empty ids select the analyzers enabled in the configuration.
func (r *Runner) AnalyzeRepositories(ctx context.Context, repos []string, ids []model.AnalyzerID) (model.RunResult, error) {
	if len(ids) == 0 {
		ids = r.cfg.EnabledAnalyzers()
	}

	return r.Run(ctx, source.Spec{Type: source.TypeList, Repos: repos}, ids)
}

// SpecFromConfig returns the repository selection of cfg.
func SpecFromConfig(cfg *config.Config) source.Spec {
	return source.Spec{
		Type:         cfg.Repositories.Type,
		Repos:        cfg.Repositories.Repos,
		Organization: cfg.Repositories.Organization,
		MaxRepos:     cfg.Repositories.MaxRepos,
	}
}

func (r *Runner) fileOptions() (fileset.Options, string, error) {
	maxSize, err := r.cfg.MaxFileSizeBytes()
	if err != nil {
		return fileset.Options{}, "", model.NewError(model.KindConfigInvalid, "file size limit",
			fmt.Errorf("%w: %w", model.ErrConfigInvalid, err))
	}

	matcher, err := exclude.New(r.cfg.Analysis.ExcludePatterns)
	if err != nil {
		return fileset.Options{}, "", model.NewError(model.KindConfigInvalid, "exclude patterns",
			fmt.Errorf("%w: %w", model.ErrConfigInvalid, err))
	}

	fingerprint := resultcache.Fingerprint(
		strings.Join(r.cfg.Analysis.ExcludePatterns, ","),
		strconv.FormatInt(maxSize, 10),
		version.Version,
	)

	return fileset.Options{Exclude: matcher, MaxFileSize: maxSize}, fingerprint, nil
}
