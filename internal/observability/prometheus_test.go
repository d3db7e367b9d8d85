package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repometrics/internal/observability"
)

func scrape(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	return rec
}

func TestPrometheusHandler_ServesMetrics(t *testing.T) {
	t.Parallel()

	handler, mp, err := observability.PrometheusHandler()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	rec := scrape(t, handler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "target_info")
}

func TestPrometheusHandler_ExposesRunMetrics(t *testing.T) {
	t.Parallel()

	handler, mp, err := observability.PrometheusHandler()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	rm, err := observability.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	rm.RecordRepository(context.Background(), "done")
	rm.RecordFetch(context.Background(), observability.StatusSuccess, false, time.Second)

	body := scrape(t, handler).Body.String()

	assert.Contains(t, body, "repometrics_repositories_total")
	assert.Contains(t, body, "repometrics_fetch_duration_seconds")
}
