package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Tool name constants.
const (
	ToolNameAnalyzePath         = "repometrics_analyze_path"
	ToolNameAnalyzeRepositories = "repometrics_analyze_repositories"
	ToolNameListAnalyzers       = "repometrics_list_analyzers"
)

// MaxRepositories bounds the repositories of one repositories tool call.
const MaxRepositories = 50

// Sentinel errors for tool input validation.
var (
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
	// ErrPathNotAbsolute indicates the path is not absolute.
	ErrPathNotAbsolute = errors.New("path must be an absolute path")
	// ErrNotDirectory indicates the path does not name a directory.
	ErrNotDirectory = errors.New("path is not a directory")
	// ErrNoRepositories indicates the repositories parameter is empty.
	ErrNoRepositories = errors.New("repositories parameter is required and must not be empty")
	// ErrTooManyRepositories indicates a call over MaxRepositories.
	ErrTooManyRepositories = errors.New("too many repositories")
	// ErrRunnerUnavailable indicates the server was started without a repository runner.
	ErrRunnerUnavailable = errors.New("repository analysis is not available on this server")
)

// Input types (auto-generate JSON schemas via struct tags).

// AnalyzePathInput is the input schema for the repometrics_analyze_path tool.
type AnalyzePathInput struct {
	Analyzers       []string `json:"analyzers,omitempty"        jsonschema:"optional analyzers: code_complexity dependency_complexity documentation_tokens (default: all)"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty" jsonschema:"optional glob patterns of paths to skip (default: server configuration)"`
	MaxFileSize     string   `json:"max_file_size,omitempty"    jsonschema:"optional size limit per file such as 1MB (default: server configuration)"`
	Path            string   `json:"path"                       jsonschema:"absolute path of the directory to analyze"`
	TopN            int      `json:"top_n,omitempty"            jsonschema:"number of most complex functions to list (default: 10)"`
}

// AnalyzeRepositoriesInput is the input schema for the
// repometrics_analyze_repositories tool.
type AnalyzeRepositoriesInput struct {
	Analyzers    []string `json:"analyzers,omitempty"    jsonschema:"optional analyzers to run (default: all)"`
	Repositories []string `json:"repositories"           jsonschema:"repositories as owner/name or clone URLs"`
	SummaryOnly  bool     `json:"summary_only,omitempty" jsonschema:"return only the aggregated summary"`
}

// ListAnalyzersInput is the empty input of the repometrics_list_analyzers tool.
type ListAnalyzersInput struct{}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// PathResult is the result of the repometrics_analyze_path tool.
type PathResult struct {
	Result  model.RepositoryAnalysisResult `json:"result"`
	Summary model.Summary                  `json:"summary"`
}

// AnalyzerList is the result of the repometrics_list_analyzers tool.
type AnalyzerList struct {
	Analyzers []analyze.Descriptor `json:"analyzers"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// analyzerIDs converts tool input names, ignoring blanks.
func analyzerIDs(names []string) []model.AnalyzerID {
	var ids []model.AnalyzerID

	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			ids = append(ids, model.AnalyzerID(strings.ToLower(name)))
		}
	}

	return ids
}
