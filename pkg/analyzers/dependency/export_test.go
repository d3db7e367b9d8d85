package dependency

// ErrMalformed exposes errMalformed to tests.
var ErrMalformed = errMalformed

// Declared is a parsed declaration as seen by tests.
type Declared struct {
	Name, Version, Scope string
}

// Parse runs the parser registered for a manifest file name.
func Parse(name string, data []byte) ([]Declared, error) {
	deps, err := manifests[name].parse(data)
	if err != nil {
		return nil, err
	}

	out := make([]Declared, 0, len(deps))
	for _, d := range deps {
		out = append(out, Declared{Name: d.name, Version: d.version, Scope: d.scope})
	}

	return out, nil
}
