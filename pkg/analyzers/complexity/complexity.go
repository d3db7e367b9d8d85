// Package complexity implements the code complexity analyzer: per-function
// cyclomatic complexity for the languages described in languages.go.
//
// Source is scanned lexically. Comments and string contents are blanked
// first, function spans are found from header patterns and body delimiters,
// and each decision point counts toward the innermost function covering its
// line. A function with no decision points has complexity 1.
package complexity

import (
	"context"
	"path"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Analyzer computes cyclomatic complexity per function.
type Analyzer struct{}

// New returns the code complexity analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ID implements analyze.Analyzer.
func (*Analyzer) ID() model.AnalyzerID { return model.AnalyzerCodeComplexity }

// Description implements analyze.Analyzer.
func (*Analyzer) Description() string {
	return "Cyclomatic complexity per function, grouped by language."
}

// Scope implements analyze.Scoped with the supported languages.
func (*Analyzer) Scope() []string { return Languages() }

// Languages lists the language names the analyzer understands.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for _, l := range languages {
		names = append(names, l.name)
	}

	return names
}

// Analyze implements analyze.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, in analyze.Input) (model.Payload, error) {
	result := &model.CodeComplexityResult{
		Functions:  []model.FunctionComplexityRecord{},
		Files:      []model.FileComplexity{},
		ByLanguage: map[string]model.LanguageComplexity{},
	}

	repo := in.Repository()

	for _, f := range in.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if skipped(f.Path) {
			continue
		}

		data, err := fileset.Read(f)
		if err != nil {
			return nil, err
		}

		lang := detect(f.Path, data)
		if lang == nil || enry.IsBinary(data) {
			continue
		}

		records, loc := analyzeFile(repo, f.Path, string(data), lang)
		if len(records) == 0 {
			continue
		}

		file := model.FileComplexity{
			Repository:  repo,
			FilePath:    f.Path,
			Language:    lang.name,
			Functions:   len(records),
			LinesOfCode: loc,
		}

		for _, r := range records {
			file.Complexity += r.CyclomaticComplexity
		}

		result.Functions = append(result.Functions, records...)
		result.Files = append(result.Files, file)
		result.TotalFiles++
		result.TotalLinesOfCode += loc

		stats := result.ByLanguage[lang.name]
		stats.Files++
		stats.Functions += file.Functions
		stats.TotalComplexity += file.Complexity
		result.ByLanguage[lang.name] = stats
	}

	return result, nil
}

func analyzeFile(repo, filePath, src string, lang *language) ([]model.FunctionComplexityRecord, int) {
	lines := strings.Split(strip(src, lang), "\n")

	spans := findFunctions(lines, lang)
	if len(spans) == 0 {
		return nil, 0
	}

	attribute(lines, spans, lang)

	records := make([]model.FunctionComplexityRecord, 0, len(spans))

	for _, s := range spans {
		cc := 1 + s.decisions
		records = append(records, model.FunctionComplexityRecord{
			Repository:           repo,
			FilePath:             filePath,
			FunctionName:         s.name,
			Language:             lang.name,
			StartLine:            s.start + 1,
			EndLine:              s.end + 1,
			CyclomaticComplexity: cc,
			HighComplexity:       metrics.IsHighComplexity(cc),
			Risk:                 string(metrics.ClassifyCyclomatic(cc)),
		})
	}

	loc := 0

	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			loc++
		}
	}

	return records, loc
}

func skipped(p string) bool {
	lower := strings.ToLower(p)

	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

// detect picks the language table for a file, by extension first and by
// content when the extension is ambiguous or unknown.
func detect(p string, data []byte) *language {
	for _, name := range enry.GetLanguagesByExtension(p, nil, nil) {
		if lang := lookup(name); lang != nil {
			return lang
		}
	}

	return lookup(enry.GetLanguage(path.Base(p), data))
}

func lookup(name string) *language {
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	return languagesByName[name]
}
