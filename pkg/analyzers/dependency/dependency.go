// Package dependency implements the dependency analyzer. It finds package
// manifests by file name and records every declared dependency.
//
// A manifest that cannot be read or parsed is reported in FailedManifests and the
// remaining manifests still produce records.
package dependency

import (
	"context"
	"path"
	"strings"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/fileset"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// skipSegments are directories holding installed or generated packages.
var skipSegments = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// Analyzer records declared dependencies per manifest.
type Analyzer struct{}

// New returns the dependency analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ID implements analyze.Analyzer.
func (*Analyzer) ID() model.AnalyzerID { return model.AnalyzerDependencyComplexity }

// Description implements analyze.Analyzer.
func (*Analyzer) Description() string {
	return "Declared dependencies per manifest and ecosystem."
}

// Scope implements analyze.Scoped with the recognized manifest file names.
func (*Analyzer) Scope() []string { return Manifests() }

// Analyze implements analyze.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, in analyze.Input) (model.Payload, error) {
	result := &model.DependencyResult{
		Dependencies: []model.DependencyRecord{},
		Manifests:    []model.ManifestSummary{},
	}

	repo := in.Repository()

	for _, f := range in.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, ok := manifests[path.Base(f.Path)]
		if !ok || skippedDir(f.Path) {
			continue
		}

		deps, err := readManifest(f, m)
		if err != nil {
			result.FailedManifests = append(result.FailedManifests, model.ManifestFailure{
				Path:      f.Path,
				Ecosystem: m.ecosystem,
				Message:   err.Error(),
			})

			continue
		}

		for _, d := range deps {
			result.Dependencies = append(result.Dependencies, model.DependencyRecord{
				Repository:     repo,
				Ecosystem:      m.ecosystem,
				ManifestPath:   f.Path,
				DependencyName: d.name,
				VersionSpec:    d.version,
				Scope:          d.scope,
			})
		}

		result.Manifests = append(result.Manifests, model.ManifestSummary{
			Path:         f.Path,
			Ecosystem:    m.ecosystem,
			Dependencies: len(deps),
		})
	}

	return result, nil
}

func readManifest(f fileset.File, m manifest) ([]dep, error) {
	data, err := fileset.Read(f)
	if err != nil {
		return nil, err
	}

	return m.parse(data)
}

func skippedDir(p string) bool {
	dir := path.Dir(p)
	if dir == "." {
		return false
	}

	for _, seg := range strings.Split(dir, "/") {
		if skipSegments[seg] {
			return true
		}
	}

	return false
}
