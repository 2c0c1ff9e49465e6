package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)

	rec, body := serve(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc, err := NewServerContext(context.Background(), newTestResolver(false))
	require.NoError(t, err)
	h := NewHealthChecker(sc)

	rec, body := serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, body["status"])

	h.SetReady(false)
	rec, _ = serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec, body = serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusShuttingDown, body["checks"].(map[string]any)["shutdown"])
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc, err := NewServerContext(context.Background(), newTestResolver(true))
	require.NoError(t, err)
	sc.SetCalendarForAccount("work", &stubCalendar{account: "work"})

	mux := http.NewServeMux()
	NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	rec, body := serve(t, mux, "/healthz/detailed")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, modeReadOnly, body["mode"])
	assert.Equal(t, float64(1), body["cachedClients"])
	assert.NotEmpty(t, body["uptime"])
}
