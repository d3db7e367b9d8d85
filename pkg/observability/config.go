// Package observability provides OpenTelemetry tracing, metrics and
// structured logging for the repometrics CLI and MCP server.
package observability

import (
	"io"
	"log/slog"
	"os"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is the analyze/validate command mode.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server mode.
	ModeMCP AppMode = "mcp"
)

const (
	defaultServiceName        = "repometrics"
	defaultShutdownTimeoutSec = 5

	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders  = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
	envEnvironment  = "REPOMETRICS_ENV"
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "ci" or "dev".
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables
	// export and the providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers for the exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool

	// SampleRatio is the share of runs whose traces are kept. The run span
	// is the trace root, so a run is sampled or dropped as a whole.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	// LogWriter receives log output. Nil means stderr. The MCP server
	// owns stdout, so logs never go there.
	LogWriter io.Writer

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		SampleRatio:        1,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ConfigFromEnv returns DefaultConfig overlaid with the standard OTLP
// environment variables.
func ConfigFromEnv(mode AppMode) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.OTLPEndpoint = os.Getenv(envOTLPEndpoint)
	cfg.OTLPHeaders = ParseOTLPHeaders(os.Getenv(envOTLPHeaders))
	cfg.OTLPInsecure = os.Getenv(envOTLPInsecure) == "true"
	cfg.Environment = os.Getenv(envEnvironment)

	return cfg
}

func (c Config) logWriter() io.Writer {
	if c.LogWriter != nil {
		return c.LogWriter
	}

	return os.Stderr
}
