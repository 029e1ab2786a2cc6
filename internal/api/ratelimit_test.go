package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := newLimiter(5, time.Hour)

	for i := 0; i < 5; i++ {
		assert.True(t, l.allow("198.51.100.1"), "request %d is inside the burst", i+1)
	}
	assert.False(t, l.allow("198.51.100.1"), "the burst is spent")
	assert.True(t, l.allow("198.51.100.2"), "other clients have their own budget")
}

func TestLimiterDescription(t *testing.T) {
	assert.Equal(t, "5 per 1 hour", newLimiter(5, time.Hour).desc)
	assert.Equal(t, "10 per 1 minute", newLimiter(10, time.Minute).desc)
	assert.Equal(t, "100 per 1 minute", newLimiter(100, time.Minute).desc)
}

func TestGenerateCodeRateLimited(t *testing.T) {
	s := newTestServerWithConfig(t, Config{AllowedOrigins: []string{"*"}, RateLimits: true})

	for i := 0; i < 5; i++ {
		rec := doJSON(t, s, http.MethodPost, "/generate-code", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d is inside the limit", i+1)
	}

	rec := doJSON(t, s, http.MethodPost, "/generate-code", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, "5 per 1 hour", body["message"])
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServerWithConfig(t, Config{AllowedOrigins: []string{"*"}, RateLimits: true})

	for i := 0; i < 10; i++ {
		rec := doJSON(t, s, http.MethodPost, "/login", map[string]string{"code": "NOPE00"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "failed logins still consume budget")
	}

	rec := doJSON(t, s, http.MethodPost, "/login", map[string]string{"code": "NOPE00"}, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitsDisabledByDefaultConfig(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 12; i++ {
		rec := doJSON(t, s, http.MethodPost, "/login", map[string]string{"code": "NOPE00"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "disabled limits never answer 429")
	}
}
