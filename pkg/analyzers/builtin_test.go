package analyzers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers"
	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	r, err := analyzers.Builtin()
	require.NoError(t, err)
	assert.Equal(t, model.AllAnalyzers(), r.IDs())

	descriptors := r.Descriptors()
	require.Len(t, descriptors, 3)

	for _, d := range descriptors {
		assert.NotEmpty(t, d.Description, d.ID)
	}

	assert.Contains(t, descriptors[0].Scope, "Kotlin")
	assert.Contains(t, descriptors[1].Scope, "package.json")
	assert.Empty(t, descriptors[2].Scope)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	all, err := analyzers.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Len())

	some, err := analyzers.Select([]model.AnalyzerID{model.AnalyzerDocumentationTokens, model.AnalyzerCodeComplexity})
	require.NoError(t, err)
	assert.Equal(t, []model.AnalyzerID{model.AnalyzerDocumentationTokens, model.AnalyzerCodeComplexity}, some.IDs())

	_, err = analyzers.Select([]model.AnalyzerID{"halstead"})
	require.ErrorIs(t, err, analyze.ErrUnknownAnalyzerID)
}
