package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

// RunHandler is an [slog.Handler] that tags each record with the run it
// belongs to: the run ID bound by StartRun and, when the span is recording,
// its trace and span IDs. Concurrent MCP runs sharing one logger stay
// distinguishable this way.
type RunHandler struct {
	inner slog.Handler
}

// NewRunHandler wraps inner. Service metadata is attached once, before any
// group, so it stays at the top level.
func NewRunHandler(inner slog.Handler, service, env string, mode AppMode) *RunHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(mode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &RunHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled implements slog.Handler.
func (h *RunHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RunHandler) Handle(ctx context.Context, record slog.Record) error {
	if id := RunID(ctx); id != "" {
		record.AddAttrs(slog.String(AttrRunID, id))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	return h.inner.Handle(ctx, record)
}

// WithAttrs implements slog.Handler.
func (h *RunHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RunHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *RunHandler) WithGroup(name string) slog.Handler {
	return &RunHandler{inner: h.inner.WithGroup(name)}
}
