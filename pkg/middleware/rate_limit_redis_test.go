package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func redisLimitedRouter(t *testing.T, userID string, rps float64, burst int, window time.Duration) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.Use(RedisRateLimitMiddleware(client, rps, burst, window))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r, mr
}

func TestRedisRateLimit_BlocksOverWindowAllowance(t *testing.T) {
	// 1 rps over a 1s window plus burst 1 => 2 allowed per window
	r, _ := redisLimitedRouter(t, "redis-user", 1, 1, time.Second)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRedisRateLimit_NilClientFallsBackToMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "fallback-user")
		c.Next()
	})
	r.Use(RedisRateLimitMiddleware(nil, 10, 5, time.Second))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRedisRateLimit_WindowBucketsExpire(t *testing.T) {
	r, mr := redisLimitedRouter(t, "expiring-user", 1, 0, time.Second)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	// The bucket key carries a TTL so stale windows do not accumulate.
	keys := mr.Keys()
	require.NotEmpty(t, keys)
	require.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}
