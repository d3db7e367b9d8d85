// Package aggregate folds per-repository analysis results into the run
// summary. Aggregation is pure: inputs are never mutated and the same input
// always yields the same summary.
package aggregate

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/docs"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// DefaultTopN is the size of the top functions list when none is set.
const DefaultTopN = 10

// Options tunes the aggregation.
type Options struct {
	// TopN bounds Summary.TopFunctions and Summary.TopFiles. Zero or less
	// means DefaultTopN.
	TopN int
}

func (o Options) topN() int {
	if o.TopN <= 0 {
		return DefaultTopN
	}

	return o.TopN
}

// Aggregate computes the summary of results.
func Aggregate(results []model.RepositoryAnalysisResult, opts Options) model.Summary {
	summary := model.Summary{
		TotalRepositories: len(results),
		Dependencies:      model.DependencySummary{ByEcosystem: map[string]int{}},
		PerRepository:     make([]model.RepositorySummary, 0, len(results)),
		TopFunctions:      []model.FunctionComplexityRecord{},
		TopFiles:          []model.FileComplexity{},
		Failures:          []model.FailureEntry{},
	}

	var (
		functions []model.FunctionComplexityRecord
		files     []model.FileComplexity
		docFiles  []model.DocumentationMetric
	)

	for i := range results {
		r := &results[i]
		repo := repositorySummary(r)

		if !r.Fetch.Succeeded() {
			summary.FetchFailed++
			summary.Failures = append(summary.Failures, model.FailureEntry{
				Repository: r.Ref.FullName(),
				Stage:      model.StageFetch,
				Kind:       r.Fetch.ErrorKind,
				Message:    r.Fetch.Message,
			})
			summary.PerRepository = append(summary.PerRepository, repo)

			continue
		}

		for _, id := range OrderedAnalyzers(r.Outcomes) {
			out := r.Outcomes[id]
			if out.Succeeded() {
				continue
			}

			summary.AnalyzerFailures++
			summary.Failures = append(summary.Failures, model.FailureEntry{
				Repository: r.Ref.FullName(),
				Stage:      model.StageAnalyzer,
				Analyzer:   id,
				Kind:       out.ErrorKind,
				Message:    out.Message,
			})
		}

		if len(repo.FailedAnalyzers) == 0 {
			summary.Succeeded++
		}

		if cc := r.Outcomes[model.AnalyzerCodeComplexity].CodeComplexity; cc != nil {
			addComplexity(&summary.Complexity, cc)
			functions = append(functions, cc.Functions...)
			files = append(files, cc.Files...)
		}

		if deps := r.Outcomes[model.AnalyzerDependencyComplexity].DependencyComplexity; deps != nil {
			addDependencies(&summary.Dependencies, deps)
		}

		if doc := r.Outcomes[model.AnalyzerDocumentationTokens].DocumentationTokens; doc != nil {
			addDocumentation(&summary.Documentation, doc)
			docFiles = append(docFiles, doc.Files...)
		}

		summary.PerRepository = append(summary.PerRepository, repo)
	}

	summary.Complexity.AverageComplexity = average(summary.Complexity.TotalComplexity, summary.Complexity.TotalFunctions)
	summary.TopFunctions = TopFunctions(functions, opts.topN())
	summary.TopFiles = TopFiles(files, opts.topN())
	summary.Documentation.AverageTokensPerFile = docs.AverageTokens(docFiles)
	summary.Documentation.LargestFiles = docs.Largest(docFiles, docs.LargestFiles)

	return summary
}

// BuildRunResult assembles the canonical run result around results.
func BuildRunResult(
	runID string,
	generatedAt time.Time,
	analyzers []model.AnalyzerID,
	results []model.RepositoryAnalysisResult,
	notStarted []model.RepositoryRef,
	cancelled bool,
	opts Options,
) model.RunResult {
	if results == nil {
		results = []model.RepositoryAnalysisResult{}
	}

	return model.RunResult{
		RunID:        runID,
		GeneratedAt:  generatedAt,
		Analyzers:    analyzers,
		Repositories: results,
		Summary:      Aggregate(results, opts),
		Cancelled:    cancelled,
		NotStarted:   notStarted,
	}
}

// TopFunctions returns the n most complex functions: complexity
// descending, then file path, start line and repository ascending. The
// input slice is not reordered.
func TopFunctions(functions []model.FunctionComplexityRecord, n int) []model.FunctionComplexityRecord {
	ranked := make([]model.FunctionComplexityRecord, len(functions))
	copy(ranked, functions)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		switch {
		case a.CyclomaticComplexity != b.CyclomaticComplexity:
			return a.CyclomaticComplexity > b.CyclomaticComplexity
		case a.FilePath != b.FilePath:
			return a.FilePath < b.FilePath
		case a.StartLine != b.StartLine:
			return a.StartLine < b.StartLine
		default:
			return a.Repository < b.Repository
		}
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}

// TopFiles returns the n files with the highest total complexity, ties
// broken by repository and path. The input slice is not reordered.
func TopFiles(files []model.FileComplexity, n int) []model.FileComplexity {
	ranked := make([]model.FileComplexity, len(files))
	copy(ranked, files)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		switch {
		case a.Complexity != b.Complexity:
			return a.Complexity > b.Complexity
		case a.Repository != b.Repository:
			return a.Repository < b.Repository
		default:
			return a.FilePath < b.FilePath
		}
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}

// OrderedAnalyzers returns the keys of outcomes with the built-in analyzers
// first, in canonical order, followed by any others sorted by name.
func OrderedAnalyzers(outcomes map[model.AnalyzerID]model.AnalyzerOutcome) []model.AnalyzerID {
	ids := make([]model.AnalyzerID, 0, len(outcomes))

	for _, id := range model.AllAnalyzers() {
		if _, ok := outcomes[id]; ok {
			ids = append(ids, id)
		}
	}

	var extra []model.AnalyzerID

	for id := range outcomes {
		if !id.Valid() {
			extra = append(extra, id)
		}
	}

	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(ids, extra...)
}

func repositorySummary(r *model.RepositoryAnalysisResult) model.RepositorySummary {
	repo := model.RepositorySummary{
		Repository:              r.Ref.FullName(),
		FetchSucceeded:          r.Fetch.Succeeded(),
		DependenciesByEcosystem: map[string]int{},
	}

	if !repo.FetchSucceeded {
		return repo
	}

	for _, id := range OrderedAnalyzers(r.Outcomes) {
		if !r.Outcomes[id].Succeeded() {
			repo.FailedAnalyzers = append(repo.FailedAnalyzers, id)
		}
	}

	if cc := r.Outcomes[model.AnalyzerCodeComplexity].CodeComplexity; cc != nil {
		for _, f := range cc.Functions {
			repo.TotalFunctions++
			repo.TotalComplexity += f.CyclomaticComplexity
			repo.MaxComplexity = max(repo.MaxComplexity, f.CyclomaticComplexity)

			if f.HighComplexity {
				repo.HighComplexityFunctions++
			}
		}

		repo.AverageComplexity = average(repo.TotalComplexity, repo.TotalFunctions)
	}

	if deps := r.Outcomes[model.AnalyzerDependencyComplexity].DependencyComplexity; deps != nil {
		for _, d := range deps.Dependencies {
			repo.DependenciesByEcosystem[d.Ecosystem]++
		}
	}

	if doc := r.Outcomes[model.AnalyzerDocumentationTokens].DocumentationTokens; doc != nil {
		for _, f := range doc.Files {
			repo.DocumentationTokens += f.TokenCount
		}
	}

	return repo
}

func addComplexity(dst *model.ComplexitySummary, cc *model.CodeComplexityResult) {
	dst.TotalFiles += cc.TotalFiles
	dst.TotalLinesOfCode += cc.TotalLinesOfCode

	for _, f := range cc.Functions {
		dst.TotalFunctions++
		dst.TotalComplexity += f.CyclomaticComplexity
		dst.MaxComplexity = max(dst.MaxComplexity, f.CyclomaticComplexity)
		dst.Distribution.Add(f.CyclomaticComplexity)

		if f.HighComplexity {
			dst.HighComplexityFunctions++
		}
	}
}

func addDependencies(dst *model.DependencySummary, deps *model.DependencyResult) {
	dst.TotalDependencies += len(deps.Dependencies)
	dst.TotalManifests += len(deps.Manifests)
	dst.FailedManifests += len(deps.FailedManifests)

	for _, d := range deps.Dependencies {
		dst.ByEcosystem[d.Ecosystem]++
	}
}

func addDocumentation(dst *model.DocumentationSummary, doc *model.DocumentationResult) {
	for _, f := range doc.Files {
		dst.TotalFiles++
		dst.TotalTokens += f.TokenCount
		dst.TotalCharacters += f.Characters
		dst.TotalLines += f.Lines
	}
}

func average(total, count int) float64 {
	if count == 0 {
		return 0
	}

	return float64(total) / float64(count)
}
