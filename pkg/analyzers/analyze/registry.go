package analyze

import (
	"fmt"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Descriptor is stable analyzer metadata.
type Descriptor struct {
	ID          model.AnalyzerID `json:"id"`
	Description string           `json:"description"`
	// Scope names what the analyzer recognizes, such as languages or
	// manifest files. Empty when it reads every file.
	Scope []string `json:"scope,omitempty"`
}

// Scoped is implemented by analyzers that only recognize some inputs.
type Scoped interface {
	Scope() []string
}

// Registry is an ordered, closed set of analyzers fixed before a run starts.
type Registry struct {
	ordered []Analyzer
	index   map[model.AnalyzerID]Analyzer
}

// NewRegistry creates a registry. Order is preserved.
func NewRegistry(analyzers ...Analyzer) (*Registry, error) {
	r := &Registry{index: make(map[model.AnalyzerID]Analyzer, len(analyzers))}

	for _, a := range analyzers {
		id := a.ID()
		if _, exists := r.index[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAnalyzerID, id)
		}

		r.index[id] = a
		r.ordered = append(r.ordered, a)
	}

	return r, nil
}

// Select returns a registry restricted to ids, in the order of ids.
func (r *Registry) Select(ids []model.AnalyzerID) (*Registry, error) {
	selected := make([]Analyzer, 0, len(ids))

	for _, id := range ids {
		a, ok := r.index[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAnalyzerID, id)
		}

		selected = append(selected, a)
	}

	return NewRegistry(selected...)
}

// Analyzers returns the analyzers in order.
func (r *Registry) Analyzers() []Analyzer {
	return append([]Analyzer(nil), r.ordered...)
}

// IDs returns the analyzer ids in order.
func (r *Registry) IDs() []model.AnalyzerID {
	ids := make([]model.AnalyzerID, len(r.ordered))
	for i, a := range r.ordered {
		ids[i] = a.ID()
	}

	return ids
}

// Descriptors returns id and description of every analyzer in order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	for i, a := range r.ordered {
		out[i] = Descriptor{ID: a.ID(), Description: a.Description()}

		if scoped, ok := a.(Scoped); ok {
			out[i].Scope = scoped.Scope()
		}
	}

	return out
}

// Len returns the number of analyzers.
func (r *Registry) Len() int {
	return len(r.ordered)
}
