package commands_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/cmd/repometrics/commands"
	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/gitlib/gittest"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/source"
)

func TestRunner_AnalyzeRepositories_UsesEnabledAnalyzersAndCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	remotes := filepath.Join(root, "remotes")

	origin := gittest.NewAt(t, filepath.Join(remotes, "acme", "api.git"))
	origin.CommitFile("main.go", "package main\n\nfunc main() {}\n", "initial")

	cfg := config.Default()
	cfg.CloneDirectory = filepath.Join(root, "snapshots")
	cfg.GitHub.CloneURL = remotes
	cfg.Analysis.DocumentationTokens = false
	cfg.Cache.Enabled = true

	runner := commands.NewRunner(cfg)

	run, err := runner.AnalyzeRepositories(context.Background(), []string{"acme/api"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []model.AnalyzerID{model.AnalyzerCodeComplexity, model.AnalyzerDependencyComplexity}, run.Analyzers)
	require.Len(t, run.Repositories, 1)
	assert.Equal(t, model.StateDone, run.Repositories[0].State)
	assert.Len(t, run.Repositories[0].Fetch.RevisionID, 40)

	entries, err := os.ReadDir(cfg.CacheDirectory())
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "successful outcomes are cached")

	again, err := runner.AnalyzeRepositories(context.Background(), []string{"acme/api"}, nil)
	require.NoError(t, err)
	require.Len(t, again.Repositories[0].Outcomes, 2)

	for id, out := range again.Repositories[0].Outcomes {
		assert.Equal(t, model.StatusSuccess, out.Status, id)
	}

	assert.True(t, again.Repositories[0].Fetch.Updated)
}

func TestRunner_UnknownAnalyzerIsConfigInvalid(t *testing.T) {
	t.Parallel()

	runner := commands.NewRunner(config.Default())

	_, err := runner.AnalyzeRepositories(context.Background(), []string{"acme/api"}, []model.AnalyzerID{"halstead"})
	require.ErrorIs(t, err, model.ErrConfigInvalid)
	assert.True(t, model.IsRunFatal(err))
}

func TestRunner_RunLogsRunIDAndRateBudget(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	originPath := filepath.Join(root, "remotes", "acme", "api.git")

	origin := gittest.NewAt(t, originPath)
	origin.CommitFile("main.go", "package main\n\nfunc main() {}\n", "initial")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4321")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[{"name":"api","owner":{"login":"acme"},"clone_url":%q}]`, originPath)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.CloneDirectory = filepath.Join(root, "snapshots")
	cfg.GitHub.APIURL = srv.URL

	var logs bytes.Buffer

	handler := observability.NewRunHandler(slog.NewJSONHandler(&logs, nil), "repometrics", "", observability.ModeCLI)

	run, err := commands.NewRunner(cfg, commands.WithLogger(slog.New(handler))).Run(context.Background(),
		source.Spec{Type: source.TypeOrganization, Organization: "acme"},
		[]model.AnalyzerID{model.AnalyzerCodeComplexity})
	require.NoError(t, err)
	require.Len(t, run.Repositories, 1)
	assert.Equal(t, model.StateDone, run.Repositories[0].State)

	var finished map[string]any

	scanner := bufio.NewScanner(&logs)
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))

		if record["msg"] == "run finished" {
			finished = record
		}
	}

	require.NotNil(t, finished)
	assert.Equal(t, run.RunID, finished[observability.AttrRunID])
	assert.InDelta(t, 4321, finished["api_requests_remaining"], 0)
	assert.InDelta(t, 0, finished["rate_limited"], 0)
	assert.InDelta(t, 1, finished["repositories"], 0)
}
