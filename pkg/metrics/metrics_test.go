package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/repometrics/pkg/metrics"
)

func TestClassifyCyclomatic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value int
		want  metrics.RiskLevel
	}{
		{1, metrics.RiskLow},
		{5, metrics.RiskLow},
		{6, metrics.RiskMedium},
		{10, metrics.RiskMedium},
		{11, metrics.RiskHigh},
		{20, metrics.RiskHigh},
		{21, metrics.RiskCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, metrics.ClassifyCyclomatic(tt.value), "value %d", tt.value)
	}
}

func TestIsHighComplexity_StrictlyAboveTen(t *testing.T) {
	t.Parallel()

	assert.False(t, metrics.IsHighComplexity(10))
	assert.True(t, metrics.IsHighComplexity(11))
}

func TestDistribution_Add(t *testing.T) {
	t.Parallel()

	var dist metrics.Distribution

	for _, v := range []int{1, 3, 5, 6, 10, 11, 40} {
		dist.Add(v)
	}

	assert.Equal(t, metrics.Distribution{Simple: 3, Moderate: 2, Complex: 2}, dist)
}
