package dependency

import (
	"fmt"

	"golang.org/x/mod/modfile"
)

// parseGoMod reads the require directives of a go.mod. Replacements are
// applied to the version spec so the record shows what is actually built.
func parseGoMod(data []byte) ([]dep, error) {
	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	replaced := make(map[string]string, len(f.Replace))
	for _, r := range f.Replace {
		target := r.New.Path
		if r.New.Version != "" {
			target += " " + r.New.Version
		}

		replaced[r.Old.Path] = "=> " + target
	}

	deps := make([]dep, 0, len(f.Require))

	for _, req := range f.Require {
		scope := ScopeRuntime
		if req.Indirect {
			scope = ScopeIndirect
		}

		version := req.Mod.Version
		if repl, ok := replaced[req.Mod.Path]; ok {
			version += " " + repl
		}

		deps = append(deps, dep{name: req.Mod.Path, version: version, scope: scope})
	}

	return deps, nil
}
