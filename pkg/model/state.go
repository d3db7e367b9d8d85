package model

// PipelineState is the per-repository pipeline state.
type PipelineState string

// Pipeline states. FetchFailed and Done are terminal.
const (
	StatePending     PipelineState = "pending"
	StateFetching    PipelineState = "fetching"
	StateFetchFailed PipelineState = "fetch_failed"
	StateAnalyzing   PipelineState = "analyzing"
	StateAggregating PipelineState = "aggregating"
	StateDone        PipelineState = "done"
)

// AnalyzerState is the per-analyzer sub-state inside StateAnalyzing.
type AnalyzerState string

// Analyzer states. Succeeded and Failed are terminal.
const (
	AnalyzerRunning   AnalyzerState = "running"
	AnalyzerSucceeded AnalyzerState = "succeeded"
	AnalyzerFailed    AnalyzerState = "failed"
)

var pipelineTransitions = map[PipelineState][]PipelineState{
	StatePending:     {StateFetching},
	StateFetching:    {StateFetchFailed, StateAnalyzing},
	StateAnalyzing:   {StateAggregating},
	StateAggregating: {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s PipelineState) Terminal() bool {
	return s == StateFetchFailed || s == StateDone
}

// CanTransition reports whether s → next is a legal pipeline step.
func (s PipelineState) CanTransition(next PipelineState) bool {
	for _, allowed := range pipelineTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}
