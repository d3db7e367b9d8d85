// Package analyzers assembles the built-in analyzer set.
package analyzers

import (
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/complexity"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/dependency"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/docs"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

// Builtin returns a registry of every built-in analyzer in canonical order.
func Builtin() (*analyze.Registry, error) {
	return analyze.NewRegistry(complexity.New(), dependency.New(), docs.New())
}

// Select returns the built-in analyzers named by ids, in the order of ids.
// An empty ids selects all of them.
func Select(ids []model.AnalyzerID) (*analyze.Registry, error) {
	all, err := Builtin()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return all, nil
	}

	return all.Select(ids)
}
