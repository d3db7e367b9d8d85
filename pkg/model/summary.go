package model

import "github.com/Sumatoshi-tech/repometrics/pkg/metrics"

// Summary is derived deterministically from RunResult.Repositories.
type Summary struct {
	TotalRepositories int `json:"total_repositories"`
	Succeeded         int `json:"succeeded"`
	FetchFailed       int `json:"fetch_failed"`
	AnalyzerFailures  int `json:"analyzer_failures"`

	Complexity    ComplexitySummary    `json:"complexity"`
	Dependencies  DependencySummary    `json:"dependencies"`
	Documentation DocumentationSummary `json:"documentation"`

	PerRepository []RepositorySummary        `json:"per_repository"`
	TopFunctions  []FunctionComplexityRecord `json:"top_functions"`
	TopFiles      []FileComplexity           `json:"top_files"`
	Failures      []FailureEntry             `json:"failures"`
}

// ComplexitySummary aggregates code complexity across repositories.
type ComplexitySummary struct {
	TotalFiles              int                  `json:"total_files"`
	TotalFunctions          int                  `json:"total_functions"`
	TotalComplexity         int                  `json:"total_complexity"`
	TotalLinesOfCode        int                  `json:"total_lines_of_code"`
	AverageComplexity       float64              `json:"average_complexity"`
	MaxComplexity           int                  `json:"max_complexity"`
	HighComplexityFunctions int                  `json:"high_complexity_functions"`
	Distribution            metrics.Distribution `json:"distribution"`
}

// DependencySummary aggregates dependency counts across repositories.
type DependencySummary struct {
	TotalDependencies int            `json:"total_dependencies"`
	TotalManifests    int            `json:"total_manifests"`
	FailedManifests   int            `json:"failed_manifests"`
	ByEcosystem       map[string]int `json:"by_ecosystem"`
}

// DocumentationSummary aggregates documentation metrics across repositories.
type DocumentationSummary struct {
	TotalFiles           int                   `json:"total_files"`
	TotalTokens          int                   `json:"total_tokens"`
	TotalCharacters      int                   `json:"total_characters"`
	TotalLines           int                   `json:"total_lines"`
	AverageTokensPerFile float64               `json:"average_tokens_per_file"`
	LargestFiles         []DocumentationMetric `json:"largest_doc_files"`
}

// RepositorySummary is the per-repository rollup.
type RepositorySummary struct {
	Repository              string         `json:"repository"`
	FetchSucceeded          bool           `json:"fetch_succeeded"`
	TotalFunctions          int            `json:"total_functions"`
	TotalComplexity         int            `json:"total_complexity"`
	AverageComplexity       float64        `json:"average_complexity"`
	MaxComplexity           int            `json:"max_complexity"`
	HighComplexityFunctions int            `json:"high_complexity_functions"`
	DependenciesByEcosystem map[string]int `json:"dependencies_by_ecosystem"`
	DocumentationTokens     int            `json:"documentation_tokens"`
	FailedAnalyzers         []AnalyzerID   `json:"failed_analyzers,omitempty"`
}

// FailureStage says where a failure happened.
type FailureStage string

// Failure stages.
const (
	StageFetch    FailureStage = "fetch"
	StageAnalyzer FailureStage = "analyzer"
)

// FailureEntry surfaces one fetch or analyzer failure in the report.
type FailureEntry struct {
	Repository string       `json:"repository"`
	Stage      FailureStage `json:"stage"`
	Analyzer   AnalyzerID   `json:"analyzer,omitempty"`
	Kind       ErrorKind    `json:"kind"`
	Message    string       `json:"message"`
}
