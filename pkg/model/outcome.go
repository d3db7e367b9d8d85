package model

import "fmt"

// OutcomeStatus is the discriminator of fetch and analyzer outcomes.
type OutcomeStatus string

// Outcome statuses.
const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailure OutcomeStatus = "failure"
)

// AnalyzerOutcome is the tagged union Success{analyzer, records} |
// Failure{analyzer, kind, message}. On success exactly one payload field is
// set, matching Analyzer.
type AnalyzerOutcome struct {
	Analyzer AnalyzerID    `json:"analyzer"`
	Status   OutcomeStatus `json:"status"`

	CodeComplexity       *CodeComplexityResult `json:"code_complexity,omitempty"`
	DependencyComplexity *DependencyResult     `json:"dependency_complexity,omitempty"`
	DocumentationTokens  *DocumentationResult  `json:"documentation_tokens,omitempty"`

	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Success wraps a payload into a success outcome. A nil payload, or one of a
// type the outcome has no field for, yields an AnalyzerInternal failure so
// that a success always carries its payload.
func Success(payload Payload) AnalyzerOutcome {
	if payload == nil {
		return Failure("", KindAnalyzerInternal, "success without a payload")
	}

	out := AnalyzerOutcome{Analyzer: payload.AnalyzerID(), Status: StatusSuccess}

	switch p := payload.(type) {
	case *CodeComplexityResult:
		out.CodeComplexity = p
	case *DependencyResult:
		out.DependencyComplexity = p
	case *DocumentationResult:
		out.DocumentationTokens = p
	default:
		return Failure(out.Analyzer, KindAnalyzerInternal, fmt.Sprintf("unsupported payload type %T", payload))
	}

	if out.Payload() == nil {
		return Failure(out.Analyzer, KindAnalyzerInternal, fmt.Sprintf("nil %T payload", payload))
	}

	return out
}

// Failure builds a failure outcome.
func Failure(id AnalyzerID, kind ErrorKind, message string) AnalyzerOutcome {
	return AnalyzerOutcome{
		Analyzer:  id,
		Status:    StatusFailure,
		ErrorKind: kind,
		Message:   message,
	}
}

// Succeeded reports whether the outcome is a success.
func (o AnalyzerOutcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Payload returns the typed payload of a success outcome, or nil.
func (o AnalyzerOutcome) Payload() Payload {
	switch {
	case o.CodeComplexity != nil:
		return o.CodeComplexity
	case o.DependencyComplexity != nil:
		return o.DependencyComplexity
	case o.DocumentationTokens != nil:
		return o.DocumentationTokens
	default:
		return nil
	}
}
