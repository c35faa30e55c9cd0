package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/health"
)

// recordingChecker captures the timeout each probe was given.
type recordingChecker struct {
	dbErr        error
	redisErr     error
	dbTimeout    time.Duration
	redisTimeout time.Duration
}

func (c *recordingChecker) PingDB(_ context.Context, timeout time.Duration) error {
	c.dbTimeout = timeout
	return c.dbErr
}

func (c *recordingChecker) PingRedis(_ context.Context, timeout time.Duration) error {
	c.redisTimeout = timeout
	return c.redisErr
}

func readyStatus(t *testing.T, handler health.Handler) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	}
	return rr, status
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadyReportsDependencies(t *testing.T) {
	checker := &recordingChecker{}
	rr, status := readyStatus(t, health.Handler{Checker: checker})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", status["db"])
	require.Equal(t, "ok", status["redis"])
}

func TestReadyDefaultTimeouts(t *testing.T) {
	checker := &recordingChecker{}
	_, _ = readyStatus(t, health.Handler{Checker: checker})
	require.Equal(t, 500*time.Millisecond, checker.dbTimeout)
	require.Equal(t, 300*time.Millisecond, checker.redisTimeout)
}

func TestReadyConfiguredTimeouts(t *testing.T) {
	checker := &recordingChecker{}
	_, _ = readyStatus(t, health.Handler{
		Checker:      checker,
		DBTimeout:    50 * time.Millisecond,
		RedisTimeout: 25 * time.Millisecond,
	})
	require.Equal(t, 50*time.Millisecond, checker.dbTimeout)
	require.Equal(t, 25*time.Millisecond, checker.redisTimeout)
}

func TestReadyDegradedOnDependencyFailure(t *testing.T) {
	checker := &recordingChecker{redisErr: errors.New("redis down")}
	rr, status := readyStatus(t, health.Handler{Checker: checker})
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "ok", status["db"])
	require.Equal(t, "redis down", status["redis"])
}

func TestReadyWithoutChecker(t *testing.T) {
	rr, _ := readyStatus(t, health.Handler{})
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestPingerProbesRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := health.Pinger{Redis: client}
	require.NoError(t, p.PingRedis(context.Background(), time.Second))

	mr.Close()
	require.Error(t, p.PingRedis(context.Background(), 100*time.Millisecond))
}
