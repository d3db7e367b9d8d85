// Package config provides configuration loading and validation for repometrics.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Sentinel validation errors.
var (
	ErrInvalidSourceType   = errors.New("repositories.type must be list or organization")
	ErrMissingOrganization = errors.New("repositories.organization is required in organization mode")
	ErrNegativeMaxRepos    = errors.New("repositories.max_repos must not be negative")
	ErrInvalidFormat       = errors.New("output.format must contain html, json or both")
	ErrInvalidWorkers      = errors.New("pipeline.workers must be positive")
	ErrInvalidFileSize     = errors.New("analysis.max_file_size is not a valid size")
	ErrInvalidTopN         = errors.New("analysis.top_n must be positive")
	ErrInvalidTimeout      = errors.New("analysis.timeout must be positive")
	ErrInvalidAttempts     = errors.New("github.max_attempts must be positive")
	ErrInvalidLogLevel     = errors.New("logging.level must be debug, info, warn or error")
	ErrInvalidLogFormat    = errors.New("logging.format must be text or json")
	ErrInvalidSampleRatio  = errors.New("logging.trace_sample_ratio must be between 0 and 1")
	ErrNoAnalyzersEnabled  = errors.New("at least one analyzer must be enabled")
)

const (
	envPrefix      = "REPOMETRICS"
	configBaseName = ".repometrics"
)

// Config holds all configuration for a repometrics run.
type Config struct {
	Repositories   RepositoriesConfig `mapstructure:"repositories"`
	Analysis       AnalysisConfig     `mapstructure:"analysis"`
	Output         OutputConfig       `mapstructure:"output"`
	CloneDirectory string             `mapstructure:"clone_directory"`
	Fetch          FetchConfig        `mapstructure:"fetch"`
	GitHub         GitHubConfig       `mapstructure:"github"`
	Pipeline       PipelineConfig     `mapstructure:"pipeline"`
	Cache          CacheConfig        `mapstructure:"cache"`
	Logging        LoggingConfig      `mapstructure:"logging"`
}

// RepositoriesConfig describes where the repository set comes from.
type RepositoriesConfig struct {
	Type         string   `mapstructure:"type"`
	Repos        []string `mapstructure:"repos"`
	Organization string   `mapstructure:"organization"`
	MaxRepos     int      `mapstructure:"max_repos"`
}

// AnalysisConfig toggles analyzers and shared file filtering.
type AnalysisConfig struct {
	CodeComplexity       bool          `mapstructure:"code_complexity"`
	DependencyComplexity bool          `mapstructure:"dependency_complexity"`
	DocumentationTokens  bool          `mapstructure:"documentation_tokens"`
	ExcludePatterns      []string      `mapstructure:"exclude_patterns"`
	MaxFileSize          string        `mapstructure:"max_file_size"`
	Timeout              time.Duration `mapstructure:"timeout"`
	TopN                 int           `mapstructure:"top_n"`
}

// OutputConfig holds report destinations.
type OutputConfig struct {
	Directory string   `mapstructure:"directory"`
	Format    []string `mapstructure:"format"`
	Charts    bool     `mapstructure:"charts"`
}

// FetchConfig holds snapshot lifecycle settings.
type FetchConfig struct {
	RetainSnapshots bool `mapstructure:"retain_snapshots"`
}

// GitHubConfig holds remote hosting API settings.
type GitHubConfig struct {
	Token          string        `mapstructure:"token"`
	APIURL         string        `mapstructure:"api_url"`
	CloneURL       string        `mapstructure:"clone_url"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// CacheConfig holds the analyzer result cache settings.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// LoggingConfig holds logging and tracing settings. TraceSampleRatio is the
// share of runs whose spans are exported when an OTLP endpoint is set.
type LoggingConfig struct {
	Level            string  `mapstructure:"level"`
	Format           string  `mapstructure:"format"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches for .repometrics.yaml in the working
// directory and the home directory; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configBaseName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, invalid("read config", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, invalid("unmarshal config", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	return &Config{
		Repositories: RepositoriesConfig{Type: DefaultSourceType, MaxRepos: DefaultMaxRepos},
		Analysis: AnalysisConfig{
			CodeComplexity:       DefaultCodeComplexity,
			DependencyComplexity: DefaultDependencyComplexity,
			DocumentationTokens:  DefaultDocumentationTokens,
			ExcludePatterns:      slices.Clone(DefaultExcludePatterns),
			MaxFileSize:          DefaultMaxFileSize,
			Timeout:              DefaultAnalyzerTimeout,
			TopN:                 DefaultTopN,
		},
		Output: OutputConfig{
			Directory: DefaultOutputDirectory,
			Format:    slices.Clone(DefaultFormats),
			Charts:    DefaultCharts,
		},
		CloneDirectory: DefaultCloneDirectory,
		Fetch:          FetchConfig{RetainSnapshots: DefaultRetainSnapshots},
		GitHub: GitHubConfig{
			APIURL:         DefaultGitHubAPIURL,
			CloneURL:       DefaultGitHubCloneURL,
			MaxAttempts:    DefaultGitHubMaxAttempts,
			InitialBackoff: DefaultGitHubInitialBackoff,
			MaxBackoff:     DefaultGitHubMaxBackoff,
		},
		Pipeline: PipelineConfig{Workers: DefaultPipelineWorkers},
		Cache:    CacheConfig{Enabled: DefaultCacheEnabled},
		Logging: LoggingConfig{
			Level:            DefaultLogLevel,
			Format:           DefaultLogFormat,
			TraceSampleRatio: DefaultTraceSampleRatio,
		},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	def := Default()

	viperCfg.SetDefault("repositories.type", def.Repositories.Type)
	viperCfg.SetDefault("repositories.repos", []string{})
	viperCfg.SetDefault("repositories.organization", "")
	viperCfg.SetDefault("repositories.max_repos", def.Repositories.MaxRepos)

	viperCfg.SetDefault("analysis.code_complexity", def.Analysis.CodeComplexity)
	viperCfg.SetDefault("analysis.dependency_complexity", def.Analysis.DependencyComplexity)
	viperCfg.SetDefault("analysis.documentation_tokens", def.Analysis.DocumentationTokens)
	viperCfg.SetDefault("analysis.exclude_patterns", def.Analysis.ExcludePatterns)
	viperCfg.SetDefault("analysis.max_file_size", def.Analysis.MaxFileSize)
	viperCfg.SetDefault("analysis.timeout", def.Analysis.Timeout)
	viperCfg.SetDefault("analysis.top_n", def.Analysis.TopN)

	viperCfg.SetDefault("output.directory", def.Output.Directory)
	viperCfg.SetDefault("output.format", def.Output.Format)
	viperCfg.SetDefault("output.charts", def.Output.Charts)

	viperCfg.SetDefault("clone_directory", def.CloneDirectory)
	viperCfg.SetDefault("fetch.retain_snapshots", def.Fetch.RetainSnapshots)

	viperCfg.SetDefault("github.token", "")
	viperCfg.SetDefault("github.api_url", def.GitHub.APIURL)
	viperCfg.SetDefault("github.clone_url", def.GitHub.CloneURL)
	viperCfg.SetDefault("github.max_attempts", def.GitHub.MaxAttempts)
	viperCfg.SetDefault("github.initial_backoff", def.GitHub.InitialBackoff)
	viperCfg.SetDefault("github.max_backoff", def.GitHub.MaxBackoff)

	viperCfg.SetDefault("pipeline.workers", def.Pipeline.Workers)

	viperCfg.SetDefault("cache.enabled", def.Cache.Enabled)
	viperCfg.SetDefault("cache.directory", "")

	viperCfg.SetDefault("logging.level", def.Logging.Level)
	viperCfg.SetDefault("logging.format", def.Logging.Format)
	viperCfg.SetDefault("logging.trace_sample_ratio", def.Logging.TraceSampleRatio)
}

// Validate checks the configuration. Every failure is a ConfigInvalid error.
func (c *Config) Validate() error {
	switch c.Repositories.Type {
	case SourceTypeList:
	case SourceTypeOrganization:
		if strings.TrimSpace(c.Repositories.Organization) == "" {
			return invalid("validate config", ErrMissingOrganization)
		}
	default:
		return invalid("validate config", fmt.Errorf("%w: %q", ErrInvalidSourceType, c.Repositories.Type))
	}

	if c.Repositories.MaxRepos < 0 {
		return invalid("validate config", fmt.Errorf("%w: %d", ErrNegativeMaxRepos, c.Repositories.MaxRepos))
	}

	if len(c.EnabledAnalyzers()) == 0 {
		return invalid("validate config", ErrNoAnalyzersEnabled)
	}

	_, sizeErr := c.MaxFileSizeBytes()
	if sizeErr != nil {
		return invalid("validate config", sizeErr)
	}

	if c.Analysis.TopN <= 0 {
		return invalid("validate config", fmt.Errorf("%w: %d", ErrInvalidTopN, c.Analysis.TopN))
	}

	if c.Analysis.Timeout <= 0 {
		return invalid("validate config", fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Analysis.Timeout))
	}

	_, formatErr := NormalizeFormats(c.Output.Format)
	if formatErr != nil {
		return invalid("validate config", formatErr)
	}

	if c.Pipeline.Workers <= 0 {
		return invalid("validate config", fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Pipeline.Workers))
	}

	if c.GitHub.MaxAttempts <= 0 {
		return invalid("validate config", fmt.Errorf("%w: %d", ErrInvalidAttempts, c.GitHub.MaxAttempts))
	}

	_, levelErr := ParseLogLevel(c.Logging.Level)
	if levelErr != nil {
		return invalid("validate config", levelErr)
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		return invalid("validate config", fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	if c.Logging.TraceSampleRatio < 0 || c.Logging.TraceSampleRatio > 1 {
		return invalid("validate config", fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Logging.TraceSampleRatio))
	}

	return nil
}

// EnabledAnalyzers returns the enabled analyzer set in canonical order.
func (c *Config) EnabledAnalyzers() []model.AnalyzerID {
	enabled := map[model.AnalyzerID]bool{
		model.AnalyzerCodeComplexity:       c.Analysis.CodeComplexity,
		model.AnalyzerDependencyComplexity: c.Analysis.DependencyComplexity,
		model.AnalyzerDocumentationTokens:  c.Analysis.DocumentationTokens,
	}

	ids := make([]model.AnalyzerID, 0, len(enabled))

	for _, id := range model.AllAnalyzers() {
		if enabled[id] {
			ids = append(ids, id)
		}
	}

	return ids
}

// MaxFileSizeBytes parses analysis.max_file_size. Zero disables the limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	raw := strings.TrimSpace(c.Analysis.MaxFileSize)
	if raw == "" || raw == "0" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidFileSize, raw, err)
	}

	return int64(size), nil //nolint:gosec // sizes come from human-written config.
}

// Formats returns the normalized output formats.
func (c *Config) Formats() []string {
	formats, err := NormalizeFormats(c.Output.Format)
	if err != nil {
		return slices.Clone(DefaultFormats)
	}

	return formats
}

// HasFormat reports whether format is among the normalized output formats.
func (c *Config) HasFormat(format string) bool {
	return slices.Contains(c.Formats(), format)
}

// CacheDirectory returns the result cache directory.
func (c *Config) CacheDirectory() string {
	if c.Cache.Directory != "" {
		return c.Cache.Directory
	}

	return filepath.Join(c.CloneDirectory, DefaultCacheSubdir)
}

// NormalizeFormats expands "both", lower-cases and deduplicates format names.
func NormalizeFormats(raw []string) ([]string, error) {
	var out []string

	add := func(format string) {
		if !slices.Contains(out, format) {
			out = append(out, format)
		}
	}

	for _, item := range raw {
		for part := range strings.SplitSeq(item, ",") {
			format := strings.ToLower(strings.TrimSpace(part))

			switch format {
			case "":
				continue
			case FormatBoth:
				add(FormatHTML)
				add(FormatJSON)
			case FormatHTML, FormatJSON:
				add(format)
			default:
				return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrInvalidFormat
	}

	slices.Sort(out)

	return out, nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
}

func invalid(op string, err error) error {
	return model.NewError(model.KindConfigInvalid, op, fmt.Errorf("%w: %w", model.ErrConfigInvalid, err))
}
