package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sales-backoffice/internal/config"
	"github.com/iliyamo/sales-backoffice/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// bucket refills once an hour so a test never sees a token come back.
func bucket(strategy string, capacity int) config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            2 * time.Hour,
		KeyStrategy:    strategy,
		Prefix:         "rl",
	}
}

func get(e *echo.Echo, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	return res
}

func TestTokenBucketBlocksWhenEmpty(t *testing.T) {
	mr, rdb := newRedis(t)
	log, _ := test.NewNullLogger()
	e := echo.New()
	e.GET("/ping", ok, NewTokenBucket(bucket("ip", 2), rdb, log))

	first := get(e, "/ping", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := get(e, "/ping", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := get(e, "/ping", "")
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "2", third.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", third.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "3600", third.Header().Get("Retry-After"))
	env := decode(t, third)
	assert.False(t, env.OK)
	assert.Equal(t, "Muitas requisições. Tente novamente em instantes.", env.Message)

	assert.True(t, mr.Exists("rl:ip:192.0.2.1"))
}

func TestTokenBucketFailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	log, _ := test.NewNullLogger()
	e := echo.New()
	e.GET("/ping", ok, NewTokenBucket(bucket("ip", 1), rdb, log))

	for i := 0; i < 3; i++ {
		res := get(e, "/ping", "")
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Empty(t, res.Header().Get("X-RateLimit-Limit"))
	}
}

func TestTokenBucketDisabledOrWithoutClientPassesThrough(t *testing.T) {
	_, rdb := newRedis(t)
	disabled := bucket("ip", 1)
	disabled.Enabled = false

	for name, mw := range map[string]echo.MiddlewareFunc{
		"disabled":  NewTokenBucket(disabled, rdb, nil),
		"no client": NewTokenBucket(bucket("ip", 1), nil, nil),
	} {
		e := echo.New()
		e.GET("/ping", ok, mw)
		for i := 0; i < 3; i++ {
			res := get(e, "/ping", "")
			assert.Equal(t, http.StatusOK, res.Code, name)
			assert.Empty(t, res.Header().Get("X-RateLimit-Limit"), name)
		}
	}
}

func TestTokenBucketAfterJWTKeysByUser(t *testing.T) {
	mr, rdb := newRedis(t)
	ts := tokenService()
	e := echo.New()
	g := e.Group("/api", JWTAuth(ts), NewTokenBucket(bucket("user", 1), rdb, nil))
	g.GET("/ping", ok)

	alice := bearer(t, ts, model.User{ID: 1, Role: model.RoleVendedor})
	bob := bearer(t, ts, model.User{ID: 2, Role: model.RoleVendedor})

	assert.Equal(t, http.StatusOK, get(e, "/api/ping", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/api/ping", alice).Code)
	assert.Equal(t, http.StatusOK, get(e, "/api/ping", bob).Code)

	assert.True(t, mr.Exists("rl:user:1"))
	assert.True(t, mr.Exists("rl:user:2"))
	assert.False(t, mr.Exists("rl:user:anon"))
}
