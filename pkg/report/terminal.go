package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/repometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// PrintSummary writes the human readable run summary: overall figures, one
// row per repository, the most complex functions and files, the largest
// documentation files and every failure.
func PrintSummary(w io.Writer, run model.RunResult) {
	s := run.Summary

	title := color.New(color.Bold)
	title.Fprintf(w, "repometrics run %s\n", run.RunID)

	if run.Cancelled {
		color.New(color.FgYellow).Fprintf(w, "cancelled: %d repositories not started\n", len(run.NotStarted))
	}

	fmt.Fprintln(w)

	overview := newTable()
	overview.AppendHeader(table.Row{"Metric", "Value"})
	overview.AppendRows([]table.Row{
		{"Repositories", humanize.Comma(int64(s.TotalRepositories))},
		{"Succeeded", color.GreenString(humanize.Comma(int64(s.Succeeded)))},
		{"Fetch failures", failureCount(s.FetchFailed)},
		{"Analyzer failures", failureCount(s.AnalyzerFailures)},
		{"Files analyzed", humanize.Comma(int64(s.Complexity.TotalFiles))},
		{"Lines of code", humanize.Comma(int64(s.Complexity.TotalLinesOfCode))},
		{"Functions", humanize.Comma(int64(s.Complexity.TotalFunctions))},
		{"Average complexity", strconv.FormatFloat(s.Complexity.AverageComplexity, 'f', 2, 64)},
		{"Max complexity", strconv.Itoa(s.Complexity.MaxComplexity)},
		{"High complexity functions", humanize.Comma(int64(s.Complexity.HighComplexityFunctions))},
		{"Dependencies", humanize.Comma(int64(s.Dependencies.TotalDependencies))},
		{"Manifests", humanize.Comma(int64(s.Dependencies.TotalManifests))},
		{"Documentation tokens", humanize.Comma(int64(s.Documentation.TotalTokens))},
		{"Tokens per documentation file", strconv.FormatFloat(s.Documentation.AverageTokensPerFile, 'f', 2, 64)},
	})
	fmt.Fprintln(w, overview.Render())

	if len(s.PerRepository) > 0 {
		repos := newTable()
		repos.AppendHeader(table.Row{"Repository", "Status", "Functions", "Avg", "Max", "High", "Deps", "Doc tokens"})

		for _, r := range s.PerRepository {
			repos.AppendRow(table.Row{
				r.Repository,
				colorStatus(repositoryStatus(r)),
				humanize.Comma(int64(r.TotalFunctions)),
				strconv.FormatFloat(r.AverageComplexity, 'f', 2, 64),
				r.MaxComplexity,
				r.HighComplexityFunctions,
				humanize.Comma(int64(sumCounts(r.DependenciesByEcosystem))),
				humanize.Comma(int64(r.DocumentationTokens)),
			})
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, repos.Render())
	}

	if len(s.Dependencies.ByEcosystem) > 0 {
		ecosystems := make([]string, 0, len(s.Dependencies.ByEcosystem))
		for eco := range s.Dependencies.ByEcosystem {
			ecosystems = append(ecosystems, eco)
		}

		sort.Strings(ecosystems)

		deps := newTable()
		deps.AppendHeader(table.Row{"Ecosystem", "Dependencies"})

		for _, eco := range ecosystems {
			deps.AppendRow(table.Row{eco, humanize.Comma(int64(s.Dependencies.ByEcosystem[eco]))})
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, deps.Render())
	}

	if len(s.TopFunctions) > 0 {
		top := newTable()
		top.AppendHeader(table.Row{"#", "Repository", "Function", "Location", "Complexity", "Risk"})

		for i, f := range s.TopFunctions {
			top.AppendRow(table.Row{
				i + 1,
				f.Repository,
				f.FunctionName,
				fmt.Sprintf("%s:%d", f.FilePath, f.StartLine),
				f.CyclomaticComplexity,
				colorRisk(f.Risk),
			})
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, top.Render())
	}

	if len(s.TopFiles) > 0 {
		files := newTable()
		files.AppendHeader(table.Row{"#", "Repository", "File", "Functions", "Complexity", "Avg"})

		for i, f := range s.TopFiles {
			files.AppendRow(table.Row{
				i + 1,
				f.Repository,
				f.FilePath,
				f.Functions,
				f.Complexity,
				strconv.FormatFloat(f.AverageComplexity(), 'f', 2, 64),
			})
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, files.Render())
	}

	if len(s.Documentation.LargestFiles) > 0 {
		largest := newTable()
		largest.AppendHeader(table.Row{"Repository", "Documentation file", "Tokens"})

		for _, f := range s.Documentation.LargestFiles {
			largest.AppendRow(table.Row{f.Repository, f.FilePath, humanize.Comma(int64(f.TokenCount))})
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, largest.Render())
	}

	if len(s.Failures) > 0 {
		failures := newTable()
		failures.AppendHeader(table.Row{"Repository", "Stage", "Analyzer", "Kind", "Message"})

		for _, f := range s.Failures {
			failures.AppendRow(table.Row{f.Repository, f.Stage, f.Analyzer, color.RedString(string(f.Kind)), f.Message})
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, failures.Render())
	}
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

func failureCount(n int) string {
	s := humanize.Comma(int64(n))
	if n > 0 {
		return color.RedString(s)
	}

	return s
}

func colorStatus(status string) string {
	switch status {
	case statusOK:
		return color.GreenString(status)
	case statusPartial:
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}

func colorRisk(risk string) string {
	switch metrics.RiskLevel(risk) {
	case metrics.RiskHigh, metrics.RiskCritical:
		return color.RedString(risk)
	case metrics.RiskMedium:
		return color.YellowString(risk)
	default:
		return risk
	}
}
