package dependency

import (
	"encoding/json"
	"fmt"
	"strings"
)

const nodeModules = "node_modules/"

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	return nil
}

func parsePackageJSON(data []byte) ([]dep, error) {
	var pkg struct {
		Dependencies         map[string]string `json:"dependencies"`
		DevDependencies      map[string]string `json:"devDependencies"`
		PeerDependencies     map[string]string `json:"peerDependencies"`
		OptionalDependencies map[string]string `json:"optionalDependencies"`
	}

	if err := decodeJSON(data, &pkg); err != nil {
		return nil, err
	}

	var deps []dep

	deps = append(deps, fromMap(pkg.Dependencies, ScopeRuntime, identity)...)
	deps = append(deps, fromMap(pkg.DevDependencies, ScopeDev, identity)...)
	deps = append(deps, fromMap(pkg.PeerDependencies, ScopePeer, identity)...)
	deps = append(deps, fromMap(pkg.OptionalDependencies, ScopeOptional, identity)...)

	return sortDeps(deps), nil
}

type lockEntry struct {
	Version string `json:"version"`
	Dev     bool   `json:"dev"`
}

func (e lockEntry) scope() string {
	if e.Dev {
		return ScopeDev
	}

	return ScopeRuntime
}

// parsePackageLock reads lockfile v2/v3 "packages" and falls back to the
// v1 "dependencies" map.
func parsePackageLock(data []byte) ([]dep, error) {
	var lock struct {
		Packages     map[string]lockEntry `json:"packages"`
		Dependencies map[string]lockEntry `json:"dependencies"`
	}

	if err := decodeJSON(data, &lock); err != nil {
		return nil, err
	}

	var deps []dep

	if len(lock.Packages) > 0 {
		for key, entry := range lock.Packages {
			if key == "" {
				continue
			}

			name := key
			if i := strings.LastIndex(key, nodeModules); i >= 0 {
				name = key[i+len(nodeModules):]
			}

			deps = append(deps, dep{name: name, version: entry.Version, scope: entry.scope()})
		}

		return sortDeps(deps), nil
	}

	for name, entry := range lock.Dependencies {
		deps = append(deps, dep{name: name, version: entry.Version, scope: entry.scope()})
	}

	return sortDeps(deps), nil
}

func parsePipfileLock(data []byte) ([]dep, error) {
	type entry struct {
		Version string `json:"version"`
	}

	var lock struct {
		Default map[string]entry `json:"default"`
		Develop map[string]entry `json:"develop"`
	}

	if err := decodeJSON(data, &lock); err != nil {
		return nil, err
	}

	version := func(e entry) string { return e.Version }

	deps := fromMap(lock.Default, ScopeRuntime, version)
	deps = append(deps, fromMap(lock.Develop, ScopeDev, version)...)

	return sortDeps(deps), nil
}

func parseComposerJSON(data []byte) ([]dep, error) {
	var composer struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}

	if err := decodeJSON(data, &composer); err != nil {
		return nil, err
	}

	deps := fromMap(composer.Require, ScopeRuntime, identity)
	deps = append(deps, fromMap(composer.RequireDev, ScopeDev, identity)...)

	return sortDeps(deps), nil
}

func parseComposerLock(data []byte) ([]dep, error) {
	type pkg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	var lock struct {
		Packages    []pkg `json:"packages"`
		PackagesDev []pkg `json:"packages-dev"`
	}

	if err := decodeJSON(data, &lock); err != nil {
		return nil, err
	}

	deps := make([]dep, 0, len(lock.Packages)+len(lock.PackagesDev))

	for _, p := range lock.Packages {
		deps = append(deps, dep{name: p.Name, version: p.Version, scope: ScopeRuntime})
	}

	for _, p := range lock.PackagesDev {
		deps = append(deps, dep{name: p.Name, version: p.Version, scope: ScopeDev})
	}

	return deps, nil
}

// parseProjectJSON reads the legacy NuGet project.json, where a dependency
// is either a version string or an object with a "version" key.
func parseProjectJSON(data []byte) ([]dep, error) {
	var project struct {
		Dependencies map[string]json.RawMessage `json:"dependencies"`
	}

	if err := decodeJSON(data, &project); err != nil {
		return nil, err
	}

	deps := make([]dep, 0, len(project.Dependencies))

	for name, raw := range project.Dependencies {
		var version string

		if err := json.Unmarshal(raw, &version); err != nil {
			var obj struct {
				Version string `json:"version"`
			}

			if objErr := json.Unmarshal(raw, &obj); objErr != nil {
				return nil, fmt.Errorf("%w: dependency %q: %w", errMalformed, name, objErr)
			}

			version = obj.Version
		}

		deps = append(deps, dep{name: name, version: version, scope: ScopeRuntime})
	}

	return sortDeps(deps), nil
}
