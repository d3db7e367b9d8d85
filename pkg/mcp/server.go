// Package mcp implements a Model Context Protocol server exposing the
// repometrics analyzers as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "repometrics"

	// toolCount is the expected number of registered tools.
	toolCount = 3
)

// RepositoryRunner runs the full resolve, fetch and analyze pipeline for a
// list of "owner/name" repositories.
type RepositoryRunner interface {
	AnalyzeRepositories(ctx context.Context, repos []string, analyzers []model.AnalyzerID) (model.RunResult, error)
}

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Registry holds the analyzers the path tool may run. Required.
	Registry *analyze.Registry

	// Runner serves the repositories tool. Nil makes that tool report an error.
	Runner RepositoryRunner

	// ExcludePatterns apply when a path call does not name its own.
	ExcludePatterns []string
	// MaxFileSize applies when a path call does not set one. Zero disables it.
	MaxFileSize int64
	// Timeout bounds each analyzer invocation of the path tool.
	Timeout time.Duration

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the repometrics tool registrations.
type Server struct {
	inner  *mcpsdk.Server
	deps   ServerDeps
	logger *slog.Logger
	mu     sync.RWMutex
	tools  []string
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner:  inner,
		deps:   deps,
		logger: logger,
		tools:  make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameAnalyzePath,
		Description: analyzePathToolDescription,
	}, withLogging(s.logger, ToolNameAnalyzePath,
		withTracing(s.deps.Tracer, ToolNameAnalyzePath, s.handleAnalyzePath)))

	s.trackTool(ToolNameAnalyzePath)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameAnalyzeRepositories,
		Description: analyzeRepositoriesToolDescription,
	}, withLogging(s.logger, ToolNameAnalyzeRepositories,
		withTracing(s.deps.Tracer, ToolNameAnalyzeRepositories, s.handleAnalyzeRepositories)))

	s.trackTool(ToolNameAnalyzeRepositories)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameListAnalyzers,
		Description: listAnalyzersToolDescription,
	}, withLogging(s.logger, ToolNameListAnalyzers,
		withTracing(s.deps.Tracer, ToolNameListAnalyzers, s.handleListAnalyzers)))

	s.trackTool(ToolNameListAnalyzers)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withLogging wraps an MCP tool handler to log the outcome and duration of
// every invocation.
func withLogging[Input any](
	logger *slog.Logger,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		logger.InfoContext(ctx, "mcp tool call",
			"tool", toolName, "status", status, "duration_ms", time.Since(start).Milliseconds())

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	analyzePathToolDescription = "Analyze a local directory for cyclomatic complexity, " +
		"declared dependencies and documentation tokens. " +
		"Accepts an absolute path and an optional list of analyzers."

	analyzeRepositoriesToolDescription = "Fetch and analyze a list of owner/name repositories " +
		"with the configured analyzers and return the aggregated run result."

	listAnalyzersToolDescription = "List the available analyzers with the languages " +
		"and manifest files each one recognizes."
)
