package analyze_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/analyzers/analyze"
	"github.com/Sumatoshi-tech/repometrics/pkg/model"
)

type stubAnalyzer struct {
	id model.AnalyzerID
	fn func(ctx context.Context) (model.Payload, error)
}

func (s stubAnalyzer) ID() model.AnalyzerID { return s.id }
func (s stubAnalyzer) Description() string  { return "stub " + string(s.id) }

func (s stubAnalyzer) Analyze(ctx context.Context, _ analyze.Input) (model.Payload, error) {
	return s.fn(ctx)
}

func stub(id model.AnalyzerID, fn func(ctx context.Context) (model.Payload, error)) stubAnalyzer {
	return stubAnalyzer{id: id, fn: fn}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	a := stub(model.AnalyzerDocumentationTokens, func(context.Context) (model.Payload, error) {
		return &model.DocumentationResult{}, nil
	})

	out := analyze.Run(context.Background(), a, analyze.Input{}, time.Second)

	assert.True(t, out.Succeeded())
	assert.NotNil(t, out.DocumentationTokens)
}

func TestRun_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(ctx context.Context) (model.Payload, error)
		want model.ErrorKind
	}{
		{"panic", func(context.Context) (model.Payload, error) { panic("boom") }, model.KindAnalyzerInternal},
		{"parse", func(context.Context) (model.Payload, error) {
			return nil, &analyze.ParseError{Path: "go.mod", Err: errors.New("bad line")}
		}, model.KindAnalyzerParseFailure},
		{"wrapped parse", func(context.Context) (model.Payload, error) {
			return nil, errors.Join(errors.New("ctx"), &analyze.ParseError{Err: errors.New("bad")})
		}, model.KindAnalyzerParseFailure},
		{"internal", func(context.Context) (model.Payload, error) {
			return nil, errors.New("disk on fire")
		}, model.KindAnalyzerInternal},
		{"deadline error", func(context.Context) (model.Payload, error) {
			return nil, context.DeadlineExceeded
		}, model.KindAnalyzerTimeout},
		{"nil payload", func(context.Context) (model.Payload, error) { return nil, nil }, model.KindAnalyzerInternal},
		{"foreign payload", func(context.Context) (model.Payload, error) {
			return &model.DependencyResult{}, nil
		}, model.KindAnalyzerInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := analyze.Run(context.Background(), stub(model.AnalyzerCodeComplexity, tt.fn), analyze.Input{}, time.Second)

			assert.False(t, out.Succeeded())
			assert.Equal(t, model.AnalyzerCodeComplexity, out.Analyzer)
			assert.Equal(t, tt.want, out.ErrorKind)
			assert.NotEmpty(t, out.Message)
			assert.Nil(t, out.Payload())
		})
	}
}

func TestRun_TimeoutAbandonsStuckAnalyzer(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	a := stub(model.AnalyzerCodeComplexity, func(context.Context) (model.Payload, error) {
		<-release

		return &model.CodeComplexityResult{}, nil
	})

	start := time.Now()
	out := analyze.Run(context.Background(), a, analyze.Input{}, 20*time.Millisecond)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, model.KindAnalyzerTimeout, out.ErrorKind)
}

func TestRun_ParentCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := stub(model.AnalyzerCodeComplexity, func(ctx context.Context) (model.Payload, error) {
		<-ctx.Done()

		return nil, ctx.Err()
	})

	out := analyze.Run(ctx, a, analyze.Input{}, time.Minute)
	assert.Equal(t, model.KindAnalyzerTimeout, out.ErrorKind)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) (model.Payload, error) { return nil, nil }

	reg, err := analyze.NewRegistry(
		stub(model.AnalyzerCodeComplexity, noop),
		stub(model.AnalyzerDependencyComplexity, noop),
		stub(model.AnalyzerDocumentationTokens, noop),
	)
	require.NoError(t, err)
	assert.Equal(t, model.AllAnalyzers(), reg.IDs())
	assert.Equal(t, 3, reg.Len())

	selected, err := reg.Select([]model.AnalyzerID{model.AnalyzerDocumentationTokens, model.AnalyzerCodeComplexity})
	require.NoError(t, err)
	assert.Equal(t, []model.AnalyzerID{model.AnalyzerDocumentationTokens, model.AnalyzerCodeComplexity}, selected.IDs())
	assert.Equal(t, "stub documentation_tokens", selected.Descriptors()[0].Description)

	_, err = reg.Select([]model.AnalyzerID{"halstead"})
	require.ErrorIs(t, err, analyze.ErrUnknownAnalyzerID)

	_, err = analyze.NewRegistry(stub(model.AnalyzerCodeComplexity, noop), stub(model.AnalyzerCodeComplexity, noop))
	require.ErrorIs(t, err, analyze.ErrDuplicateAnalyzerID)
}
