// Package docs implements the documentation analyzer: whitespace token,
// character and line counts of README files and documentation markup.
package docs

import (
	"context"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// KindNone is the kind of documentation files without an extension.
const KindNone = "none"

// LargestFiles bounds DocumentationResult.LargestFiles.
const LargestFiles = 10

var docExtensions = map[string]func([]byte) string{
	".md":       markdownText,
	".markdown": markdownText,
	".rst":      rstText,
	".adoc":     asciidocText,
	".asciidoc": asciidocText,
	".txt":      func(b []byte) string { return string(b) },
}

// Analyzer counts documentation tokens.
type Analyzer struct{}

// New returns the documentation analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ID implements analyze.Analyzer.
func (*Analyzer) ID() model.AnalyzerID { return model.AnalyzerDocumentationTokens }

// Description implements analyze.Analyzer.
func (*Analyzer) Description() string {
	return "Whitespace-delimited tokens in README and documentation files."
}

// Analyze implements analyze.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, in analyze.Input) (model.Payload, error) {
	result := &model.DocumentationResult{
		Files:  []model.DocumentationMetric{},
		ByKind: map[string]model.DocumentationKind{},
	}

	repo := in.Repository()

	for _, f := range in.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !Selected(f.Path) {
			continue
		}

		data, err := fileset.Read(f)
		if err != nil {
			return nil, err
		}

		kind := kindOf(f.Path)

		tokens := len(strings.Fields(plainText(f.Path, data)))
		if tokens == 0 {
			continue
		}

		result.Files = append(result.Files, model.DocumentationMetric{
			Repository: repo,
			FilePath:   f.Path,
			TokenCount: tokens,
			Characters: utf8.RuneCount(data),
			Lines:      strings.Count(string(data), "\n") + 1,
			Kind:       kind,
		})

		rollup := result.ByKind[kind]
		rollup.Files++
		rollup.Tokens += tokens
		result.ByKind[kind] = rollup
	}

	result.AverageTokensPerFile = AverageTokens(result.Files)
	result.LargestFiles = Largest(result.Files, LargestFiles)

	return result, nil
}

// AverageTokens is the mean token count of files, zero when there are none.
func AverageTokens(files []model.DocumentationMetric) float64 {
	if len(files) == 0 {
		return 0
	}

	total := 0
	for _, f := range files {
		total += f.TokenCount
	}

	return float64(total) / float64(len(files))
}

// Largest returns the n files with the most tokens, ties broken by
// repository and path. The input slice is not reordered.
func Largest(files []model.DocumentationMetric, n int) []model.DocumentationMetric {
	ranked := make([]model.DocumentationMetric, len(files))
	copy(ranked, files)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		switch {
		case a.TokenCount != b.TokenCount:
			return a.TokenCount > b.TokenCount
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

// Selected reports whether a snapshot-relative path is documentation: a
// README of any extension or a file with a documentation extension, which
// covers docs/, doc/, documentation/ and wiki/ trees. Hidden directories
// are never documentation.
func Selected(p string) bool {
	if dir := path.Dir(p); dir != "." {
		for _, seg := range strings.Split(dir, "/") {
			if strings.HasPrefix(seg, ".") {
				return false
			}
		}
	}

	if strings.HasPrefix(strings.ToUpper(path.Base(p)), "README") {
		return true
	}

	_, ok := docExtensions[strings.ToLower(path.Ext(p))]

	return ok
}

func kindOf(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return KindNone
	}

	return ext
}

// plainText strips the markup of a file according to its extension. Files
// without a known extension (a bare README) are taken verbatim.
func plainText(p string, data []byte) string {
	if strip, ok := docExtensions[strings.ToLower(path.Ext(p))]; ok {
		return strip(data)
	}

	return string(data)
}
