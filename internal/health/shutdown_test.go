package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/health"
)

func TestReadinessGateDuringShutdown(t *testing.T) {
	checker := &recordingChecker{}
	handler := health.Handler{Checker: checker}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(true)
	t.Cleanup(func() { health.SetReady(true) })

	rr := httptest.NewRecorder()
	handler.Ready(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Once the gate is off the handler answers 503 without touching the
	// dependency probes, so a draining instance never blocks on a slow ping.
	health.SetReady(false)
	checker.dbTimeout = 0
	checker.redisTimeout = 0

	rr = httptest.NewRecorder()
	handler.Ready(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "shutting down")
	require.Zero(t, checker.dbTimeout)
	require.Zero(t, checker.redisTimeout)
}
