// Package metrics holds the shared complexity classification rules: the
// cyclomatic thresholds, risk levels and the simple/moderate/complex
// distribution used by analyzers and reports.
package metrics

// RiskLevel represents severity levels.
type RiskLevel string

// Risk level constants.
const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// Cyclomatic complexity thresholds.
const (
	CyclomaticThresholdModerate = 5
	// CyclomaticThresholdHigh is the fixed "high complexity" rule: a function
	// is flagged when its complexity is strictly above it.
	CyclomaticThresholdHigh     = 10
	CyclomaticThresholdCritical = 20
)

// IsHighComplexity reports whether a cyclomatic value is flagged as high.
func IsHighComplexity(cyclomatic int) bool {
	return cyclomatic > CyclomaticThresholdHigh
}

// ClassifyCyclomatic maps a cyclomatic value to a risk level.
func ClassifyCyclomatic(cyclomatic int) RiskLevel {
	switch {
	case cyclomatic > CyclomaticThresholdCritical:
		return RiskCritical
	case cyclomatic > CyclomaticThresholdHigh:
		return RiskHigh
	case cyclomatic > CyclomaticThresholdModerate:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Distribution buckets functions as simple (1-5), moderate (6-10) and complex (>10).
type Distribution struct {
	Simple   int `json:"simple"`
	Moderate int `json:"moderate"`
	Complex  int `json:"complex"`
}

// Add places one cyclomatic value into its bucket.
func (d *Distribution) Add(cyclomatic int) {
	switch {
	case cyclomatic <= CyclomaticThresholdModerate:
		d.Simple++
	case cyclomatic <= CyclomaticThresholdHigh:
		d.Moderate++
	default:
		d.Complex++
	}
}
