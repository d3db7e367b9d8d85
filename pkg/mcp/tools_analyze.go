package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/repometrics/pkg/aggregate"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/exclude"
	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// localOwner is the owner of the synthetic reference of an analyzed path.
const localOwner = "local"

func (s *Server) handleAnalyzePath(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input AnalyzePathInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	root, err := validatePath(input.Path)
	if err != nil {
		return errorResult(err)
	}

	registry := s.deps.Registry

	if ids := analyzerIDs(input.Analyzers); len(ids) > 0 {
		registry, err = registry.Select(ids)
		if err != nil {
			return errorResult(err)
		}
	}

	opts, err := s.fileOptions(input)
	if err != nil {
		return errorResult(err)
	}

	files, _, err := fileset.Collect(ctx, root, opts)
	if err != nil {
		return errorResult(fmt.Errorf("list files: %w", err))
	}

	snapshot := model.RepositorySnapshot{
		Ref:           model.RepositoryRef{Owner: localOwner, Name: filepath.Base(root), SourceURI: root},
		LocalRootPath: root,
	}

	result := model.RepositoryAnalysisResult{
		Ref:      snapshot.Ref,
		State:    model.StateDone,
		Fetch:    model.FetchOutcome{Status: model.StatusSuccess},
		Outcomes: make(map[model.AnalyzerID]model.AnalyzerOutcome, registry.Len()),
	}

	in := analyze.Input{Snapshot: snapshot, Files: files}

	for _, a := range registry.Analyzers() {
		result.Outcomes[a.ID()] = analyze.Run(ctx, a, in, s.deps.Timeout)
	}

	summary := aggregate.Aggregate([]model.RepositoryAnalysisResult{result}, aggregate.Options{TopN: input.TopN})

	return jsonResult(PathResult{Result: result, Summary: summary})
}

func (s *Server) handleListAnalyzers(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ ListAnalyzersInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(AnalyzerList{Analyzers: s.deps.Registry.Descriptors()})
}

func (s *Server) handleAnalyzeRepositories(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input AnalyzeRepositoriesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Repositories) == 0 {
		return errorResult(ErrNoRepositories)
	}

	if len(input.Repositories) > MaxRepositories {
		return errorResult(fmt.Errorf("%w: %d (max %d)", ErrTooManyRepositories, len(input.Repositories), MaxRepositories))
	}

	if s.deps.Runner == nil {
		return errorResult(ErrRunnerUnavailable)
	}

	ids := analyzerIDs(input.Analyzers)
	if len(ids) > 0 {
		if _, err := s.deps.Registry.Select(ids); err != nil {
			return errorResult(err)
		}
	}

	run, err := s.deps.Runner.AnalyzeRepositories(ctx, input.Repositories, ids)
	if err != nil {
		return errorResult(err)
	}

	if input.SummaryOnly {
		return jsonResult(run.Summary)
	}

	return jsonResult(run)
}

func (s *Server) fileOptions(input AnalyzePathInput) (fileset.Options, error) {
	patterns := s.deps.ExcludePatterns
	if len(input.ExcludePatterns) > 0 {
		patterns = input.ExcludePatterns
	}

	matcher, err := exclude.New(patterns)
	if err != nil {
		return fileset.Options{}, err
	}

	maxSize := s.deps.MaxFileSize

	if input.MaxFileSize != "" {
		size, parseErr := humanize.ParseBytes(input.MaxFileSize)
		if parseErr != nil {
			return fileset.Options{}, fmt.Errorf("max_file_size: %w", parseErr)
		}

		maxSize = int64(size) //nolint:gosec // sizes are far below MaxInt64
	}

	return fileset.Options{Exclude: matcher, MaxFileSize: maxSize}, nil
}

func validatePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %s", ErrPathNotAbsolute, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotDirectory, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}

	return filepath.Clean(path), nil
}
