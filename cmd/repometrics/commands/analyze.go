package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/report"
)

// AnalyzeCommand holds the flags of the analyze command. Flags that are set
// override the configuration file.
type AnalyzeCommand struct {
	configPath   string
	repos        []string
	organization string
	maxRepos     int
	output       string
	noCharts     bool
	format       string
	token        string
	workers      int
	topN         int
	cloneDir     string
	metricsAddr  string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a set of repositories and write reports",
		Long: `Resolve repositories from a list or a GitHub organization, fetch a local
snapshot of each and measure code complexity, dependency complexity and
documentation tokens. Reports are written to the output directory.

Per-repository failures are reported, not fatal: the command exits with
status 1 only for invalid configuration, an unresolvable or empty
repository set, or an unusable output directory.`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	cmd.Flags().StringVarP(&ac.configPath, "config", "c", "", "Configuration file (default: .repometrics.yaml in . or $HOME)")
	cmd.Flags().StringSliceVar(&ac.repos, "repos", nil, "Repositories to analyze (example: owner/a,owner/b)")
	cmd.Flags().StringVar(&ac.organization, "organization", "", "Analyze the repositories of a GitHub organization")
	cmd.Flags().IntVar(&ac.maxRepos, "max-repos", 0, "Cap on organization repositories (0 = no cap)")
	cmd.Flags().StringVarP(&ac.output, "output", "o", "", "Report output directory")
	cmd.Flags().BoolVar(&ac.noCharts, "no-charts", false, "Skip the charts page")
	cmd.Flags().StringVar(&ac.format, "format", "", "Report format: html, json or both")
	cmd.Flags().StringVar(&ac.token, "github-token", "", "GitHub access token")
	cmd.Flags().IntVar(&ac.workers, "workers", 0, "Repositories processed in parallel")
	cmd.Flags().IntVar(&ac.topN, "top-n", 0, "Number of most complex functions to list")
	cmd.Flags().StringVar(&ac.cloneDir, "clone-dir", "", "Directory holding repository snapshots")
	cmd.Flags().StringVar(&ac.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")

	cmd.MarkFlagsMutuallyExclusive("repos", "organization")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return err
	}

	ac.applyOverrides(cmd.Flags(), cfg)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	providers, err := initObservability(cmd, cfg, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer shutdownObservability(providers)

	ctx := cmd.Context()

	err = report.PrepareDirectory(cfg.Output.Directory)
	if err != nil {
		return err
	}

	metrics, stopMetrics, err := startMetrics(ctx, ac.metricsAddr, providers)
	if err != nil {
		return err
	}
	defer stopMetrics()

	runner := NewRunner(cfg,
		WithLogger(providers.Logger),
		WithTracer(providers.Tracer),
		WithRunMetrics(metrics),
	)

	run, err := runner.Run(ctx, SpecFromConfig(cfg), cfg.EnabledAnalyzers())
	if err != nil {
		return err
	}

	written, err := report.Write(run, report.Options{
		Directory: cfg.Output.Directory,
		HTML:      cfg.HasFormat(config.FormatHTML),
		JSON:      cfg.HasFormat(config.FormatJSON),
		Charts:    cfg.Output.Charts,
	})
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	if globalFlag(cmd, "quiet") {
		return nil
	}

	out := cmd.OutOrStdout()

	report.PrintSummary(out, run)

	for _, path := range written {
		color.New(color.FgCyan).Fprintf(out, "report: %s\n", path)
	}

	return nil
}

// applyOverrides copies the flags the user set onto cfg.
func (ac *AnalyzeCommand) applyOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("repos") {
		cfg.Repositories.Type = config.SourceTypeList
		cfg.Repositories.Repos = ac.repos
	}

	if flags.Changed("organization") {
		cfg.Repositories.Type = config.SourceTypeOrganization
		cfg.Repositories.Organization = strings.TrimSpace(ac.organization)
	}

	if flags.Changed("max-repos") {
		cfg.Repositories.MaxRepos = ac.maxRepos
	}

	if flags.Changed("output") {
		cfg.Output.Directory = ac.output
	}

	if ac.noCharts {
		cfg.Output.Charts = false
	}

	if flags.Changed("format") {
		cfg.Output.Format = []string{ac.format}
	}

	if flags.Changed("github-token") {
		cfg.GitHub.Token = ac.token
	}

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = ac.workers
	}

	if flags.Changed("top-n") {
		cfg.Analysis.TopN = ac.topN
	}

	if flags.Changed("clone-dir") {
		cfg.CloneDirectory = ac.cloneDir
	}
}
