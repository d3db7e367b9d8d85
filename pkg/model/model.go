// Package model defines the canonical data model shared by the resolver,
// fetcher, analyzers, orchestrator and aggregator.
package model

import (
	"net/url"
	"strings"
	"time"
)

// RepositoryRef identifies one repository within a run.
type RepositoryRef struct {
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	SourceURI string `json:"source_uri"`
}

// FullName returns the "owner/name" form of the reference.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// Host returns the lower-cased host of SourceURI for URL and scp-like git
// sources, and "" for local paths.
func (r RepositoryRef) Host() string {
	uri := r.SourceURI

	switch {
	case strings.Contains(uri, "://"):
		u, err := url.Parse(uri)
		if err != nil {
			return ""
		}

		return strings.ToLower(u.Host)
	case strings.HasPrefix(uri, "git@"):
		host, _, ok := strings.Cut(strings.TrimPrefix(uri, "git@"), ":")
		if !ok {
			return ""
		}

		return strings.ToLower(host)
	default:
		return ""
	}
}

// Key returns the case-insensitive identity used for deduplication:
// host/owner/name, or owner/name for refs without a host.
func (r RepositoryRef) Key() string {
	name := strings.ToLower(r.FullName())

	if host := r.Host(); host != "" {
		return host + "/" + name
	}

	return name
}

// RepositorySnapshot is a materialized, read-only tree of a repository.
type RepositorySnapshot struct {
	Ref           RepositoryRef `json:"ref"`
	LocalRootPath string        `json:"local_root_path"`
	RevisionID    string        `json:"revision_id"`
	// Updated is true when an existing snapshot was fast-forwarded instead of cloned.
	Updated bool `json:"updated"`
}

// AnalyzerID tags one analyzer variant.
type AnalyzerID string

// Built-in analyzer identifiers.
const (
	AnalyzerCodeComplexity       AnalyzerID = "code_complexity"
	AnalyzerDependencyComplexity AnalyzerID = "dependency_complexity"
	AnalyzerDocumentationTokens  AnalyzerID = "documentation_tokens"
)

// AllAnalyzers lists the built-in analyzers in their canonical order.
func AllAnalyzers() []AnalyzerID {
	return []AnalyzerID{AnalyzerCodeComplexity, AnalyzerDependencyComplexity, AnalyzerDocumentationTokens}
}

// Valid reports whether id names a built-in analyzer.
func (id AnalyzerID) Valid() bool {
	switch id {
	case AnalyzerCodeComplexity, AnalyzerDependencyComplexity, AnalyzerDocumentationTokens:
		return true
	default:
		return false
	}
}

// FunctionComplexityRecord describes one function-like unit.
type FunctionComplexityRecord struct {
	Repository           string `json:"repository"`
	FilePath             string `json:"file_path"`
	FunctionName         string `json:"function_name"`
	Language             string `json:"language"`
	StartLine            int    `json:"start_line"`
	EndLine              int    `json:"end_line"`
	CyclomaticComplexity int    `json:"cyclomatic_complexity"`
	HighComplexity       bool   `json:"high_complexity"`
	Risk                 string `json:"risk"`
}

// LanguageComplexity is the per-language rollup of a code complexity result.
type LanguageComplexity struct {
	Files           int `json:"files"`
	Functions       int `json:"functions"`
	TotalComplexity int `json:"total_complexity"`
}

// FileComplexity is the per-file rollup of the functions found in one
// source file.
type FileComplexity struct {
	Repository  string `json:"repository"`
	FilePath    string `json:"file_path"`
	Language    string `json:"language"`
	Functions   int    `json:"functions"`
	Complexity  int    `json:"complexity"`
	LinesOfCode int    `json:"lines"`
}

// AverageComplexity is the mean complexity of the functions in the file.
func (f FileComplexity) AverageComplexity() float64 {
	if f.Functions == 0 {
		return 0
	}

	return float64(f.Complexity) / float64(f.Functions)
}

// CodeComplexityResult is the payload of the code complexity analyzer.
type CodeComplexityResult struct {
	Functions        []FunctionComplexityRecord    `json:"functions"`
	Files            []FileComplexity              `json:"files_analyzed"`
	TotalFiles       int                           `json:"total_files"`
	TotalLinesOfCode int                           `json:"total_lines_of_code"`
	ByLanguage       map[string]LanguageComplexity `json:"by_language"`
}

// AnalyzerID implements Payload.
func (*CodeComplexityResult) AnalyzerID() AnalyzerID { return AnalyzerCodeComplexity }

// DependencyRecord is one declared dependency entry.
type DependencyRecord struct {
	Repository     string `json:"repository"`
	Ecosystem      string `json:"ecosystem"`
	ManifestPath   string `json:"manifest_path"`
	DependencyName string `json:"dependency_name"`
	VersionSpec    string `json:"version_spec"`
	Scope          string `json:"scope,omitempty"`
}

// ManifestSummary counts the records parsed from one manifest.
type ManifestSummary struct {
	Path         string `json:"path"`
	Ecosystem    string `json:"ecosystem"`
	Dependencies int    `json:"dependencies"`
}

// ManifestFailure notes a manifest that could not be parsed.
type ManifestFailure struct {
	Path      string `json:"path"`
	Ecosystem string `json:"ecosystem"`
	Message   string `json:"message"`
}

// DependencyResult is the payload of the dependency analyzer. A result with
// failed manifests is still a success: it carries what did parse.
type DependencyResult struct {
	Dependencies    []DependencyRecord `json:"dependencies"`
	Manifests       []ManifestSummary  `json:"manifests"`
	FailedManifests []ManifestFailure  `json:"failed_manifests,omitempty"`
}

// AnalyzerID implements Payload.
func (*DependencyResult) AnalyzerID() AnalyzerID { return AnalyzerDependencyComplexity }

// DocumentationMetric is the token count of one documentation file.
type DocumentationMetric struct {
	Repository string `json:"repository"`
	FilePath   string `json:"file_path"`
	TokenCount int    `json:"token_count"`
	Characters int    `json:"characters"`
	Lines      int    `json:"lines"`
	Kind       string `json:"kind"`
}

// DocumentationKind is the per-extension rollup of a documentation result.
type DocumentationKind struct {
	Files  int `json:"files"`
	Tokens int `json:"tokens"`
}

// DocumentationResult is the payload of the documentation analyzer.
// LargestFiles holds the files with the most tokens, largest first.
type DocumentationResult struct {
	Files                []DocumentationMetric        `json:"files"`
	ByKind               map[string]DocumentationKind `json:"by_kind"`
	AverageTokensPerFile float64                      `json:"average_tokens_per_file"`
	LargestFiles         []DocumentationMetric        `json:"largest_doc_files"`
}

// AnalyzerID implements Payload.
func (*DocumentationResult) AnalyzerID() AnalyzerID { return AnalyzerDocumentationTokens }

// Payload is the typed record set produced by a successful analyzer.
type Payload interface {
	AnalyzerID() AnalyzerID
}

// FetchOutcome records how the snapshot of a repository was obtained.
type FetchOutcome struct {
	Status     OutcomeStatus `json:"status"`
	RevisionID string        `json:"revision_id,omitempty"`
	Updated    bool          `json:"updated,omitempty"`
	ErrorKind  ErrorKind     `json:"error_kind,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// Succeeded reports whether the fetch produced a snapshot.
func (f FetchOutcome) Succeeded() bool {
	return f.Status == StatusSuccess
}

// RepositoryAnalysisResult is the unit of aggregation.
type RepositoryAnalysisResult struct {
	Ref        RepositoryRef                  `json:"ref"`
	State      PipelineState                  `json:"state"`
	Fetch      FetchOutcome                   `json:"fetch"`
	Outcomes   map[AnalyzerID]AnalyzerOutcome `json:"outcomes"`
	DurationMS int64                          `json:"duration_ms"`
}

// Outcome returns the outcome recorded for id.
func (r RepositoryAnalysisResult) Outcome(id AnalyzerID) (AnalyzerOutcome, bool) {
	out, ok := r.Outcomes[id]

	return out, ok
}

// RunResult is the canonical result of a whole run.
type RunResult struct {
	RunID        string                     `json:"run_id"`
	GeneratedAt  time.Time                  `json:"generated_at"`
	Analyzers    []AnalyzerID               `json:"analyzers"`
	Repositories []RepositoryAnalysisResult `json:"repositories"`
	Summary      Summary                    `json:"summary"`
	Cancelled    bool                       `json:"cancelled"`
	NotStarted   []RepositoryRef            `json:"not_started,omitempty"`
}
