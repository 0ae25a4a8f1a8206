package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamjiwoo/subway-priority-seat/internal/config"
)

// Two trains share one route pattern; their responses must not share a
// cache entry.
func TestCacheKeyUsesRequestPath(t *testing.T) {
	e := echo.New()
	ctxFor := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/api/seats/available/:trainNumber")
		return c
	}
	c1 := ctxFor("/api/seats/available/2344")
	c2 := ctxFor("/api/seats/available/5120")

	assert.NotEqual(t, cacheKey("seat:cache", c1), cacheKey("seat:cache", c2))
	assert.Equal(t, cacheKey("seat:cache", c1), cacheKey("seat:cache", ctxFor("/api/seats/available/2344")))
}

func TestPackUnpackResponse(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	payload, err := packResponse(http.StatusOK, hdr, []byte(`{"seats":[]}`))
	require.NoError(t, err)

	status, gotHdr, body, ok := unpackResponse(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, `{"seats":[]}`, string(body))

	_, _, _, ok = unpackResponse([]byte("short"))
	assert.False(t, ok)
}

func TestCacheWithoutRedisPassesThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true}, nil)
	rec, _ := runRequest(mw, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil)
	rec, _ := runRequest(mw, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/seats/2344-3-1/status", nil)
	req.RemoteAddr = "10.0.0.7:9999"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/seats/:seatId/status")

	cfg := config.RateLimitConfig{Prefix: "seat:rl", KeyStrategy: "ip"}
	assert.Equal(t, "seat:rl:ip:10.0.0.7", rateKey(cfg, c))

	cfg.KeyStrategy = "route"
	assert.Equal(t, "seat:rl:route:PATCH /api/seats/:seatId/status", rateKey(cfg, c))

	cfg.KeyStrategy = ""
	assert.Equal(t, "seat:rl:ip:10.0.0.7:route:PATCH /api/seats/:seatId/status", rateKey(cfg, c))
}
