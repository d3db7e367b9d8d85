package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/cmd/repometrics/commands"
	"github.com/Sumatoshi-tech/repometrics/pkg/gitlib/gittest"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/report"
)

// workspace lays out origin repositories as <remotes>/<owner>/<name>.git,
// which is where a clone_url of <remotes> points "owner/name" entries.
type workspace struct {
	remotes   string
	snapshots string
	reports   string
	config    string
}

func newWorkspace(t *testing.T, extraConfig string) workspace {
	t.Helper()

	root := t.TempDir()

	ws := workspace{
		remotes:   filepath.Join(root, "remotes"),
		snapshots: filepath.Join(root, "snapshots"),
		reports:   filepath.Join(root, "reports"),
		config:    filepath.Join(root, "repometrics.yaml"),
	}

	content := fmt.Sprintf(`clone_directory: %q
output:
  directory: %q
  charts: false
github:
  clone_url: %q
logging:
  level: error
%s`, ws.snapshots, ws.reports, ws.remotes, extraConfig)

	require.NoError(t, os.WriteFile(ws.config, []byte(content), 0o600))

	return ws
}

func (ws workspace) origin(t *testing.T, owner, name string) *gittest.Repo {
	t.Helper()

	return gittest.NewAt(t, filepath.Join(ws.remotes, owner, name+".git"))
}

func runAnalyze(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := commands.NewAnalyzeCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func readResults(t *testing.T, dir string) model.RunResult {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, report.ResultsFile))
	require.NoError(t, err)

	var run model.RunResult
	require.NoError(t, json.Unmarshal(data, &run))

	return run
}

func TestAnalyze_FailureIsolation(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, "")

	ws.origin(t, "acme", "api").CommitFile("main.go",
		"package main\n\nfunc main() {\n\tif true {\n\t\treturn\n\t}\n}\n", "initial")
	ws.origin(t, "acme", "docs").CommitFile("README.md", "# Docs\n\nHow to use it.\n", "initial")

	out, err := runAnalyze(t, "--config", ws.config, "--repos", "acme/api,acme/missing,acme/docs")
	require.NoError(t, err)

	run := readResults(t, ws.reports)
	require.Len(t, run.Repositories, 3)

	assert.Equal(t, "api", run.Repositories[0].Ref.Name)
	assert.Equal(t, model.StateDone, run.Repositories[0].State)
	assert.Len(t, run.Repositories[0].Outcomes, 3)

	assert.Equal(t, "missing", run.Repositories[1].Ref.Name)
	assert.Equal(t, model.StateFetchFailed, run.Repositories[1].State)
	assert.Empty(t, run.Repositories[1].Outcomes)
	assert.True(t, model.IsFetchKind(run.Repositories[1].Fetch.ErrorKind))

	assert.Equal(t, "docs", run.Repositories[2].Ref.Name)
	assert.Equal(t, model.StateDone, run.Repositories[2].State)
	assert.Len(t, run.Repositories[2].Outcomes, 3)

	assert.Equal(t, 3, run.Summary.TotalRepositories)
	assert.Equal(t, 1, run.Summary.FetchFailed)
	assert.False(t, run.Cancelled)

	assert.FileExists(t, filepath.Join(ws.reports, report.HTMLFile))
	assert.NoFileExists(t, filepath.Join(ws.reports, report.ChartsFile))
	assert.Contains(t, out, "acme/missing")
}

func TestAnalyze_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, `analysis:
  dependency_complexity: false
`)
	ws.origin(t, "acme", "api").CommitFile("README", "one two\n", "initial")

	override := filepath.Join(t.TempDir(), "elsewhere")

	_, err := runAnalyze(t, "--config", ws.config, "--repos", "acme/api",
		"--format", "json", "--output", override, "--workers", "1")
	require.NoError(t, err)

	run := readResults(t, override)
	require.Len(t, run.Repositories, 1)
	assert.Equal(t, []model.AnalyzerID{model.AnalyzerCodeComplexity, model.AnalyzerDocumentationTokens}, run.Analyzers)
	assert.Len(t, run.Repositories[0].Outcomes, 2)

	assert.NoFileExists(t, filepath.Join(override, report.HTMLFile))
	assert.NoDirExists(t, ws.reports)
}

func TestAnalyze_UnusableOutputDirectory(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, "")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := runAnalyze(t, "--config", ws.config, "--repos", "acme/api", "--output", filepath.Join(blocker, "reports"))
	require.ErrorIs(t, err, report.ErrOutputDirectory)

	assert.NoDirExists(t, ws.snapshots, "no repository is fetched before the output check")
}

func TestAnalyze_RunFatalErrors(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"empty repository set": {},
		"invalid format":       {"--repos", "acme/api", "--format", "xml"},
		"invalid workers":      {"--repos", "acme/api", "--workers", "0"},
		"invalid entry":        {"--repos", "not a repository"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ws := newWorkspace(t, "")

			_, err := runAnalyze(t, append([]string{"--config", ws.config}, args...)...)
			require.Error(t, err)
			assert.True(t, model.IsRunFatal(err), err.Error())
			assert.NoDirExists(t, ws.snapshots)
		})
	}
}

func TestAnalyze_ReposAndOrganizationAreExclusive(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, "")

	_, err := runAnalyze(t, "--config", ws.config, "--repos", "acme/api", "--organization", "acme")
	require.Error(t, err)
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := commands.NewMCPCommand()

	assert.NotNil(t, cmd.Flags().Lookup("debug"))
	assert.NotNil(t, cmd.Flags().Lookup("config"))
}
