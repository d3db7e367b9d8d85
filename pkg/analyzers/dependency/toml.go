package dependency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

func decodeTOML(data []byte, v any) error {
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	return nil
}

// tomlVersion reads an inline spec: "1.0" or { version = "1.0", ... }.
// Path and git dependencies have no version and report their source kind.
func tomlVersion(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val["version"].(string); ok {
			return s
		}

		for _, key := range []string{"path", "git", "url"} {
			if _, ok := val[key]; ok {
				return key
			}
		}
	}

	return ""
}

func parsePipfile(data []byte) ([]dep, error) {
	var pipfile struct {
		Packages    map[string]any `toml:"packages"`
		DevPackages map[string]any `toml:"dev-packages"`
	}

	if err := decodeTOML(data, &pipfile); err != nil {
		return nil, err
	}

	deps := fromMap(pipfile.Packages, ScopeRuntime, tomlVersion)
	deps = append(deps, fromMap(pipfile.DevPackages, ScopeDev, tomlVersion)...)

	return sortDeps(deps), nil
}

// parsePyproject reads PEP 621 [project] dependencies and the Poetry
// dependency tables. The "python" constraint is not a dependency.
func parsePyproject(data []byte) ([]dep, error) {
	type poetryGroup struct {
		Dependencies map[string]any `toml:"dependencies"`
	}

	var pyproject struct {
		Project struct {
			Dependencies         []string            `toml:"dependencies"`
			OptionalDependencies map[string][]string `toml:"optional-dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies    map[string]any         `toml:"dependencies"`
				DevDependencies map[string]any         `toml:"dev-dependencies"`
				Group           map[string]poetryGroup `toml:"group"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}

	if err := decodeTOML(data, &pyproject); err != nil {
		return nil, err
	}

	var deps []dep

	for _, spec := range pyproject.Project.Dependencies {
		if d, ok := parsePEP508(spec, ScopeRuntime); ok {
			deps = append(deps, d)
		}
	}

	extras := make([]string, 0, len(pyproject.Project.OptionalDependencies))
	for extra := range pyproject.Project.OptionalDependencies {
		extras = append(extras, extra)
	}

	sort.Strings(extras)

	for _, extra := range extras {
		for _, spec := range pyproject.Project.OptionalDependencies[extra] {
			if d, ok := parsePEP508(spec, ScopeOptional); ok {
				deps = append(deps, d)
			}
		}
	}

	poetry := pyproject.Tool.Poetry

	var tables []dep

	tables = append(tables, fromMap(poetry.Dependencies, ScopeRuntime, tomlVersion)...)
	tables = append(tables, fromMap(poetry.DevDependencies, ScopeDev, tomlVersion)...)

	for group, g := range poetry.Group {
		scope := group
		if group == "dev" || group == "test" {
			scope = ScopeDev
		}

		tables = append(tables, fromMap(g.Dependencies, scope, tomlVersion)...)
	}

	for _, d := range sortDeps(tables) {
		if strings.EqualFold(d.name, "python") {
			continue
		}

		deps = append(deps, d)
	}

	return deps, nil
}

func parseCargo(data []byte) ([]dep, error) {
	var cargo struct {
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
	}

	if err := decodeTOML(data, &cargo); err != nil {
		return nil, err
	}

	deps := fromMap(cargo.Dependencies, ScopeRuntime, tomlVersion)
	deps = append(deps, fromMap(cargo.DevDependencies, ScopeDev, tomlVersion)...)
	deps = append(deps, fromMap(cargo.BuildDependencies, ScopeBuild, tomlVersion)...)

	return sortDeps(deps), nil
}

// parseTOMLPackages reads the [[package]] array shared by Cargo.lock and
// poetry.lock.
func parseTOMLPackages(data []byte) ([]dep, error) {
	var lock struct {
		Package []struct {
			Name     string `toml:"name"`
			Version  string `toml:"version"`
			Category string `toml:"category"`
		} `toml:"package"`
	}

	if err := decodeTOML(data, &lock); err != nil {
		return nil, err
	}

	deps := make([]dep, 0, len(lock.Package))

	for _, p := range lock.Package {
		scope := ScopeRuntime
		if p.Category == "dev" {
			scope = ScopeDev
		}

		deps = append(deps, dep{name: p.Name, version: p.Version, scope: scope})
	}

	return deps, nil
}
