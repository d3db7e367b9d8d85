package commands_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/cmd/repometrics/commands"
	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/observability"
)

func TestObservabilityConfig_FromLoggingSection(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = config.LogFormatJSON
	cfg.Logging.TraceSampleRatio = 0.25

	var errOut bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetErr(&errOut)

	obsCfg, err := commands.ObservabilityConfig(cmd, cfg, observability.ModeCLI)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, obsCfg.SampleRatio, 1e-9)
	assert.Equal(t, slog.LevelWarn, obsCfg.LogLevel)
	assert.True(t, obsCfg.LogJSON)
	assert.Same(t, &errOut, obsCfg.LogWriter)
}

func TestObservabilityConfig_VerboseFlagWins(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	cmd.Flags().Bool("verbose", false, "")
	require.NoError(t, cmd.Flags().Set("verbose", "true"))

	obsCfg, err := commands.ObservabilityConfig(cmd, config.Default(), observability.ModeCLI)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, obsCfg.LogLevel)
}

func TestObservabilityConfig_InvalidLevel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Level = "loud"

	_, err := commands.ObservabilityConfig(&cobra.Command{}, cfg, observability.ModeCLI)
	require.Error(t, err)
}
