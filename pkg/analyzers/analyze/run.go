package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

type result struct {
	payload model.Payload
	err     error
}

// Run invokes a under timeout and always returns exactly one outcome.
// Panics become AnalyzerInternal, deadline or cancellation AnalyzerTimeout,
// a *ParseError AnalyzerParseFailure and any other error AnalyzerInternal.
// An analyzer that ignores its context is abandoned when the deadline
// passes; its late result is discarded.
func Run(ctx context.Context, a Analyzer, in Input, timeout time.Duration) model.AnalyzerOutcome {
	id := a.ID()

	runCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &panicError{value: r}}
			}
		}()

		payload, err := a.Analyze(runCtx, in)
		done <- result{payload: payload, err: err}
	}()

	select {
	case res := <-done:
		return outcome(id, res)
	case <-runCtx.Done():
		return model.Failure(id, model.KindAnalyzerTimeout, timeoutMessage(runCtx.Err(), timeout))
	}
}

func outcome(id model.AnalyzerID, res result) model.AnalyzerOutcome {
	if res.err == nil {
		switch {
		case res.payload == nil:
			return model.Failure(id, model.KindAnalyzerInternal, ErrNoPayload.Error())
		case res.payload.AnalyzerID() != id:
			return model.Failure(id, model.KindAnalyzerInternal,
				fmt.Sprintf("%v: %s", ErrPayloadMismatch, res.payload.AnalyzerID()))
		default:
			return model.Success(res.payload)
		}
	}

	var (
		panicErr *panicError
		parseErr *ParseError
	)

	switch {
	case errors.As(res.err, &panicErr):
		return model.Failure(id, model.KindAnalyzerInternal, panicErr.Error())
	case errors.Is(res.err, context.DeadlineExceeded), errors.Is(res.err, context.Canceled):
		return model.Failure(id, model.KindAnalyzerTimeout, res.err.Error())
	case errors.As(res.err, &parseErr):
		return model.Failure(id, model.KindAnalyzerParseFailure, parseErr.Error())
	default:
		return model.Failure(id, model.KindAnalyzerInternal, res.err.Error())
	}
}

func timeoutMessage(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) && timeout > 0 {
		return fmt.Sprintf("analyzer exceeded its %s budget", timeout)
	}

	return fmt.Sprintf("analyzer aborted: %v", err)
}
