package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CleanAfricaNow/civic-service/internal/config"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func hit(h http.Handler, addr string) int {
	req := httptest.NewRequest(http.MethodGet, "/bins", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestZeroConfigStillAdmitsTraffic(t *testing.T) {
	// An omitted rate_limit config section must not close the endpoint.
	rl := NewRateLimiter(config.RateLimitConfig{}, nil)
	h := limitedHandler(rl)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, hit(h, "203.0.113.7:1234"))
	}
}

func TestBurstExhaustionReturns429(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{
		RatePerInterval: 2,
		Burst:           2,
		Interval:        time.Minute,
	}, nil)
	h := limitedHandler(rl)

	assert.Equal(t, http.StatusNoContent, hit(h, "203.0.113.8:1234"))
	assert.Equal(t, http.StatusNoContent, hit(h, "203.0.113.8:1234"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "203.0.113.8:1234"))

	// Separate clients keep separate buckets.
	assert.Equal(t, http.StatusNoContent, hit(h, "203.0.113.9:1234"))
}
