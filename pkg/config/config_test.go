package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "repometrics-*.yaml")
	require.NoError(t, err)

	_, writeErr := tmpFile.WriteString(content)
	require.NoError(t, writeErr)
	require.NoError(t, tmpFile.Close())

	return tmpFile.Name()
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.SourceTypeList, cfg.Repositories.Type)
	assert.Equal(t, "complexity_reports", cfg.Output.Directory)
	assert.Equal(t, []string{"html", "json"}, cfg.Formats())
	assert.True(t, cfg.Output.Charts)
	assert.Equal(t, "repos", cfg.CloneDirectory)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.Timeout)
	assert.Equal(t, 10, cfg.Analysis.TopN)
	assert.Equal(t, config.DefaultExcludePatterns, cfg.Analysis.ExcludePatterns)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.Equal(t, time.Minute, cfg.GitHub.MaxBackoff)
	assert.Equal(t, model.AllAnalyzers(), cfg.EnabledAnalyzers())
	assert.True(t, cfg.Fetch.RetainSnapshots)
	assert.False(t, cfg.Cache.Enabled)
	assert.InDelta(t, 1.0, cfg.Logging.TraceSampleRatio, 1e-9)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
repositories:
  type: organization
  organization: acme
  max_repos: 5
analysis:
  documentation_tokens: false
  max_file_size: 512KB
  timeout: 30s
output:
  directory: /tmp/reports
  format: [both]
  charts: false
pipeline:
  workers: 2
cache:
  enabled: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.SourceTypeOrganization, cfg.Repositories.Type)
	assert.Equal(t, "acme", cfg.Repositories.Organization)
	assert.Equal(t, 5, cfg.Repositories.MaxRepos)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, "/tmp/reports", cfg.Output.Directory)
	assert.Equal(t, []string{"html", "json"}, cfg.Formats())
	assert.False(t, cfg.Output.Charts)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t,
		[]model.AnalyzerID{model.AnalyzerCodeComplexity, model.AnalyzerDependencyComplexity},
		cfg.EnabledAnalyzers())

	size, sizeErr := cfg.MaxFileSizeBytes()
	require.NoError(t, sizeErr)
	assert.Equal(t, int64(512_000), size)

	assert.Equal(t, filepath.Join("repos", config.DefaultCacheSubdir), cfg.CacheDirectory())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("REPOMETRICS_PIPELINE_WORKERS", "9")
	t.Setenv("REPOMETRICS_GITHUB_TOKEN", "ghp_test")
	t.Setenv("REPOMETRICS_CLONE_DIRECTORY", "/tmp/env-repos")
	t.Setenv("REPOMETRICS_LOGGING_TRACE_SAMPLE_RATIO", "0.25")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Pipeline.Workers)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, "/tmp/env-repos", cfg.CloneDirectory)
	assert.InDelta(t, 0.25, cfg.Logging.TraceSampleRatio, 1e-9)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "repositories: [unterminated\n")

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConfigInvalid)
	assert.Equal(t, model.KindConfigInvalid, model.KindOf(err, ""))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"defaults", func(*config.Config) {}, nil},
		{"unknown type", func(c *config.Config) { c.Repositories.Type = "gitlab" }, config.ErrInvalidSourceType},
		{"organization without name", func(c *config.Config) {
			c.Repositories.Type = config.SourceTypeOrganization
		}, config.ErrMissingOrganization},
		{"negative cap", func(c *config.Config) { c.Repositories.MaxRepos = -1 }, config.ErrNegativeMaxRepos},
		{"bad format", func(c *config.Config) { c.Output.Format = []string{"pdf"} }, config.ErrInvalidFormat},
		{"empty format", func(c *config.Config) { c.Output.Format = nil }, config.ErrInvalidFormat},
		{"zero workers", func(c *config.Config) { c.Pipeline.Workers = 0 }, config.ErrInvalidWorkers},
		{"bad size", func(c *config.Config) { c.Analysis.MaxFileSize = "lots" }, config.ErrInvalidFileSize},
		{"zero top n", func(c *config.Config) { c.Analysis.TopN = 0 }, config.ErrInvalidTopN},
		{"zero timeout", func(c *config.Config) { c.Analysis.Timeout = 0 }, config.ErrInvalidTimeout},
		{"zero attempts", func(c *config.Config) { c.GitHub.MaxAttempts = 0 }, config.ErrInvalidAttempts},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, config.ErrInvalidLogLevel},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
		{"sample ratio above one", func(c *config.Config) { c.Logging.TraceSampleRatio = 1.5 }, config.ErrInvalidSampleRatio},
		{"negative sample ratio", func(c *config.Config) { c.Logging.TraceSampleRatio = -0.1 }, config.ErrInvalidSampleRatio},
		{"no analyzers", func(c *config.Config) {
			c.Analysis.CodeComplexity = false
			c.Analysis.DependencyComplexity = false
			c.Analysis.DocumentationTokens = false
		}, config.ErrNoAnalyzersEnabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			assert.ErrorIs(t, err, model.ErrConfigInvalid)
		})
	}
}

func TestNormalizeFormats(t *testing.T) {
	t.Parallel()

	formats, err := config.NormalizeFormats([]string{"JSON", "html,json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"html", "json"}, formats)

	formats, err = config.NormalizeFormats([]string{"json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"json"}, formats)
}

func TestMaxFileSizeBytesDisabled(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Analysis.MaxFileSize = "0"

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestCacheDirectoryExplicit(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Cache.Directory = "/var/cache/repometrics"

	assert.Equal(t, "/var/cache/repometrics", cfg.CacheDirectory())
}
