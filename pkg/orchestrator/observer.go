package orchestrator

import (
	"context"
	"log/slog"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Observer receives state transitions. Pipelines run concurrently, so
// implementations must be safe for concurrent use.
type Observer interface {
	RepositoryStateChanged(ctx context.Context, ref model.RepositoryRef, from, to model.PipelineState)
	AnalyzerStateChanged(ctx context.Context, ref model.RepositoryRef, id model.AnalyzerID, state model.AnalyzerState)
}

// LogObserver logs progress: terminal repository states at info level and
// every other transition at debug level.
type LogObserver struct {
	Logger *slog.Logger
}

// RepositoryStateChanged implements Observer.
func (l LogObserver) RepositoryStateChanged(ctx context.Context, ref model.RepositoryRef, from, to model.PipelineState) {
	level := slog.LevelDebug
	if to.Terminal() {
		level = slog.LevelInfo
	}

	l.Logger.Log(ctx, level, "repository "+string(to), "repository", ref.FullName(), "from", from)
}

// AnalyzerStateChanged implements Observer.
func (l LogObserver) AnalyzerStateChanged(ctx context.Context, ref model.RepositoryRef, id model.AnalyzerID, state model.AnalyzerState) {
	l.Logger.DebugContext(ctx, "analyzer "+string(state), "repository", ref.FullName(), "analyzer", id)
}
