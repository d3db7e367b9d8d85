package report_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/aggregate"
	"github.com/Sumatoshi-tech/repometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/report"
)

func function(name string, cc int) model.FunctionComplexityRecord {
	return model.FunctionComplexityRecord{
		Repository:           "acme/api",
		FilePath:             "server/handler.go",
		FunctionName:         name,
		Language:             "Go",
		StartLine:            10,
		EndLine:              40,
		CyclomaticComplexity: cc,
		HighComplexity:       metrics.IsHighComplexity(cc),
		Risk:                 string(metrics.ClassifyCyclomatic(cc)),
	}
}

func sampleRun() model.RunResult {
	api := model.RepositoryAnalysisResult{
		Ref:   model.RepositoryRef{Owner: "acme", Name: "api", SourceURI: "https://github.com/acme/api.git"},
		State: model.StateDone,
		Fetch: model.FetchOutcome{Status: model.StatusSuccess, RevisionID: "0123456789abcdef0123456789abcdef01234567"},
		Outcomes: map[model.AnalyzerID]model.AnalyzerOutcome{
			model.AnalyzerCodeComplexity: model.Success(&model.CodeComplexityResult{
				Functions: []model.FunctionComplexityRecord{function("ServeHTTP", 14), function("route", 3)},
				Files: []model.FileComplexity{{
					Repository:  "acme/api",
					FilePath:    "server/handler.go",
					Language:    "Go",
					Functions:   2,
					Complexity:  17,
					LinesOfCode: 120,
				}},
				TotalFiles:       1,
				TotalLinesOfCode: 120,
			}),
			model.AnalyzerDependencyComplexity: model.Success(&model.DependencyResult{
				Dependencies: []model.DependencyRecord{{
					Repository:     "acme/api",
					Ecosystem:      "go",
					ManifestPath:   "go.mod",
					DependencyName: "github.com/spf13/cobra",
					VersionSpec:    "v1.8.0",
					Scope:          "runtime",
				}},
				Manifests: []model.ManifestSummary{{Path: "go.mod", Ecosystem: "go", Dependencies: 1}},
			}),
			model.AnalyzerDocumentationTokens: model.Failure(model.AnalyzerDocumentationTokens,
				model.KindAnalyzerInternal, "<script>alert(1)</script>"),
		},
		DurationMS: 1500,
	}

	gone := model.RepositoryAnalysisResult{
		Ref:   model.RepositoryRef{Owner: "acme", Name: "gone"},
		State: model.StateFetchFailed,
		Fetch: model.FetchOutcome{Status: model.StatusFailure, ErrorKind: model.KindFetchNotFound, Message: "repository not found"},
	}

	return aggregate.BuildRunResult("run-42", time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), model.AllAnalyzers(),
		[]model.RepositoryAnalysisResult{api, gone}, nil, false, aggregate.Options{})
}

func TestWrite_AllReports(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	run := sampleRun()

	written, err := report.Write(run, report.Options{Directory: dir, HTML: true, JSON: true, Charts: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, report.ResultsFile),
		filepath.Join(dir, report.SummaryFile),
		filepath.Join(dir, report.HTMLFile),
		filepath.Join(dir, report.ChartsFile),
	}, written)

	results, err := os.ReadFile(filepath.Join(dir, report.ResultsFile))
	require.NoError(t, err)
	require.NoError(t, report.ValidateResults(results))

	var decoded model.RunResult
	require.NoError(t, json.Unmarshal(results, &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	require.Len(t, decoded.Repositories, 2)
	assert.Equal(t, run.Summary.TopFunctions, decoded.Summary.TopFunctions)
	assert.Equal(t, run.Summary.TopFiles, decoded.Summary.TopFiles)
	require.Len(t, decoded.Repositories[0].Outcomes[model.AnalyzerCodeComplexity].CodeComplexity.Files, 1)

	summaryData, err := os.ReadFile(filepath.Join(dir, report.SummaryFile))
	require.NoError(t, err)

	var summary model.Summary
	require.NoError(t, json.Unmarshal(summaryData, &summary))
	assert.Equal(t, 2, summary.TotalRepositories)
	assert.Equal(t, 1, summary.FetchFailed)
	assert.Equal(t, 1, summary.AnalyzerFailures)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestWrite_SelectedOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	written, err := report.Write(sampleRun(), report.Options{Directory: dir, JSON: true})
	require.NoError(t, err)
	assert.Len(t, written, 2)

	assert.NoFileExists(t, filepath.Join(dir, report.HTMLFile))
	assert.NoFileExists(t, filepath.Join(dir, report.ChartsFile))
}

func TestPrepareDirectory_Unusable(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	err := report.PrepareDirectory(filepath.Join(file, "reports"))
	require.ErrorIs(t, err, report.ErrOutputDirectory)

	require.NoError(t, report.PrepareDirectory(filepath.Join(t.TempDir(), "a", "b")))
}

func TestValidateResults(t *testing.T) {
	t.Parallel()

	document, err := report.EncodeResults(sampleRun())
	require.NoError(t, err)
	require.NoError(t, report.ValidateResults(document))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(document, &raw))

	delete(raw, "summary")
	raw["run_id"] = ""

	broken, err := json.Marshal(raw)
	require.NoError(t, err)

	err = report.ValidateResults(broken)
	require.ErrorIs(t, err, report.ErrInvalidDocument)
	assert.Contains(t, err.Error(), "summary")

	violations, err := report.Violations(broken)
	require.NoError(t, err)
	assert.Len(t, violations, 2)

	_, err = report.Violations([]byte("{not json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, report.ErrInvalidDocument)
}

func TestValidateResults_LargestDocFilesBounded(t *testing.T) {
	t.Parallel()

	run := sampleRun()

	for i := range 11 {
		run.Summary.Documentation.LargestFiles = append(run.Summary.Documentation.LargestFiles,
			model.DocumentationMetric{Repository: "acme/api", FilePath: fmt.Sprintf("doc%d.md", i), TokenCount: 20 - i})
	}

	document, err := report.EncodeResults(run)
	require.NoError(t, err)
	require.ErrorIs(t, report.ValidateResults(document), report.ErrInvalidDocument)

	run.Summary.Documentation.LargestFiles = run.Summary.Documentation.LargestFiles[:10]

	document, err = report.EncodeResults(run)
	require.NoError(t, err)
	require.NoError(t, report.ValidateResults(document))
}

func TestValidateResults_FailureNeedsKind(t *testing.T) {
	t.Parallel()

	run := sampleRun()
	run.Repositories[0].Outcomes[model.AnalyzerDocumentationTokens] = model.AnalyzerOutcome{
		Analyzer: model.AnalyzerDocumentationTokens,
		Status:   model.StatusFailure,
	}

	document, err := report.EncodeResults(run)
	require.NoError(t, err)

	require.ErrorIs(t, report.ValidateResults(document), report.ErrInvalidDocument)
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.RenderHTML(&buf, sampleRun()))

	html := buf.String()
	assert.Contains(t, html, "acme/api")
	assert.Contains(t, html, "acme/gone")
	assert.Contains(t, html, "ServeHTTP")
	assert.Contains(t, html, "FetchNotFound")
	assert.Contains(t, html, `<td class="partial">partial</td>`)
	assert.Contains(t, html, `<td class="failed">failed</td>`)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "Complexity hotspots by file")
	assert.NotContains(t, html, "Largest documentation files")
}

func TestRenderCharts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.RenderCharts(&buf, sampleRun()))

	page := buf.String()
	assert.Contains(t, page, "Complexity per repository")
	assert.Contains(t, page, "Dependencies per ecosystem")
	assert.Contains(t, page, "Documentation tokens per repository")
	assert.Contains(t, page, "Most complex functions")
	assert.Contains(t, page, "echarts")
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report.PrintSummary(&buf, sampleRun())

	out := buf.String()
	assert.Contains(t, out, "repometrics run run-42")
	assert.Contains(t, out, "acme/api")
	assert.Contains(t, out, "ServeHTTP")
	assert.Contains(t, out, "server/handler.go:10")
	assert.Equal(t, 3, strings.Count(out, "server/handler.go"), "two function rows and one file row")
	assert.Contains(t, out, "FetchNotFound")
	assert.Contains(t, out, "repository not found")
}

func TestSchema(t *testing.T) {
	t.Parallel()

	var schema map[string]any
	require.NoError(t, json.Unmarshal(report.Schema(), &schema))
	assert.Equal(t, "object", schema["type"])
}
