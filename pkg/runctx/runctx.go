// Package runctx defines the per-run context object threaded through the
// resolver and fetcher. It owns the shared rate-limit tracker and the
// snapshot cache root; nothing in it is process-global.
package runctx

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/repometrics/pkg/ratelimit"
)

// RunContext is constructed once per run and passed by reference.
type RunContext struct {
	ID        string
	StartedAt time.Time
	CacheRoot string
	Limiter   *ratelimit.Tracker
	Logger    *slog.Logger
}

// New creates a run context. A nil limiter or logger gets a default.
func New(cacheRoot string, limiter *ratelimit.Tracker, logger *slog.Logger) *RunContext {
	if limiter == nil {
		limiter = ratelimit.NewTracker()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RunContext{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		CacheRoot: cacheRoot,
		Limiter:   limiter,
		Logger:    logger,
	}
}
