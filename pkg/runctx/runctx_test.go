package runctx_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/pkg/ratelimit"
	"github.com/Sumatoshi-tech/repometrics/pkg/runctx"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	rc := runctx.New("/tmp/repos", nil, nil)

	_, err := uuid.Parse(rc.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/repos", rc.CacheRoot)
	assert.NotNil(t, rc.Limiter)
	assert.NotNil(t, rc.Logger)
	assert.False(t, rc.StartedAt.IsZero())
}

func TestNew_SharesGivenLimiter(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewTracker()
	a := runctx.New("a", limiter, nil)
	b := runctx.New("b", limiter, nil)

	assert.Same(t, a.Limiter, b.Limiter)
	assert.NotEqual(t, a.ID, b.ID)
}
