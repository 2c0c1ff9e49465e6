package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{})
	require.NoError(t, err)
	assert.Nil(t, rl)

	next := okHandler()
	rec := httptest.NewRecorder()
	rl.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_PerClientBurst(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	require.NoError(t, err)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	assert.True(t, rl.Allow("10.0.0.2"), "clients have separate buckets")
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	require.NoError(t, err)
	handler := rl.Middleware(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.RemoteAddr = "192.0.2.7:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:4000", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:4000", want: "2001:db8::1"},
		{name: "no port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
		{
			name:       "forwarded ignored without trust",
			remoteAddr: "192.0.2.1:4000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9"},
			want:       "192.0.2.1",
		},
		{
			name:       "first forwarded address",
			remoteAddr: "192.0.2.1:4000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"},
			trustProxy: true,
			want:       "198.51.100.9",
		},
		{
			name:       "real ip",
			remoteAddr: "192.0.2.1:4000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.10"},
			trustProxy: true,
			want:       "198.51.100.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trustProxy))
		})
	}
}
