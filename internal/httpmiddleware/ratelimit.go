package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter enforces a per-client request budget on the read surface.
// In-memory only; a mirror serves one host or LAN, so shared state across
// instances is not needed.
type RateLimiter struct {
	perMinute int
	burst     int

	mu      sync.Mutex
	buckets map[string]*clientBucket
}

type clientBucket struct {
	remaining float64
	refilled  time.Time
}

// NewRateLimiter allows perMinute sustained requests per client IP with
// the same burst ceiling.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{
		perMinute: perMinute,
		burst:     perMinute,
		buckets:   make(map[string]*clientBucket),
	}
}

// Middleware returns a gin handler rejecting clients over budget.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !rl.take(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) take(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		rl.buckets[key] = &clientBucket{remaining: float64(rl.burst) - 1, refilled: now}
		return true
	}

	elapsed := now.Sub(b.refilled).Minutes()
	b.remaining += elapsed * float64(rl.perMinute)
	if b.remaining > float64(rl.burst) {
		b.remaining = float64(rl.burst)
	}
	b.refilled = now

	if b.remaining < 1 {
		return false
	}
	b.remaining--
	return true
}
