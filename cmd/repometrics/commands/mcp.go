package commands

import (
	"github.com/spf13/cobra"

	iobs "github.com/Sumatoshi-tech/repometrics/internal/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers"
	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/mcp"
	"github.com/Sumatoshi-tech/repometrics/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the repometrics analyzers as tools:
  - repometrics_analyze_path: analyze a local directory
  - repometrics_analyze_repositories: fetch and analyze a list of repositories
  - repometrics_list_analyzers: list analyzers and the inputs they recognize`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if debug {
				cfg.Logging.Level = "debug"
			}

			providers, err := initObservability(cobraCmd, cfg, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer shutdownObservability(providers)

			deps, err := mcpDeps(cfg, providers)
			if err != nil {
				return err
			}

			return mcp.NewServer(deps).Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: .repometrics.yaml in . or $HOME)")

	return cmd
}

func mcpDeps(cfg *config.Config, providers observability.Providers) (mcp.ServerDeps, error) {
	registry, err := analyzers.Builtin()
	if err != nil {
		return mcp.ServerDeps{}, err
	}

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return mcp.ServerDeps{}, err
	}

	metrics, err := iobs.NewRunMetrics(providers.Meter)
	if err != nil {
		return mcp.ServerDeps{}, err
	}

	runner := NewRunner(cfg,
		WithLogger(providers.Logger),
		WithTracer(providers.Tracer),
		WithRunMetrics(metrics),
	)

	return mcp.ServerDeps{
		Registry:        registry,
		Runner:          runner,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
		MaxFileSize:     maxSize,
		Timeout:         cfg.Analysis.Timeout,
		Logger:          providers.Logger,
		Tracer:          providers.Tracer,
	}, nil
}
