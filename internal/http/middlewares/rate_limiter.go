package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// pruneEvery is how many new buckets may be created between sweeps of
// expired ones.
const pruneEvery = 1024

// RateLimiter is a fixed-window counter per caller key.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	now     func() time.Time
	clients map[string]*clientBucket
	created int
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

// RateLimiterMiddleware counts requests per keyFn(c), falling back to the
// client IP when the key is empty.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		allowed, retryAfter := rl.take(key)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}
		c.Next()
	}
}

// take consumes one request for key. When refused it returns the whole
// seconds until the window resets, at least 1.
func (rl *RateLimiter) take(key string) (bool, int) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		rl.clients[key] = &clientBucket{count: 1, windowEnd: now.Add(rl.window)}
		rl.created++
		if rl.created >= pruneEvery {
			rl.prune(now)
		}
		return true, 0
	}

	if b.count >= rl.limit {
		secs := int(math.Ceil(b.windowEnd.Sub(now).Seconds()))
		return false, max(secs, 1)
	}

	b.count++
	return true, 0
}

// prune drops buckets whose window has closed. Callers hold rl.mu.
func (rl *RateLimiter) prune(now time.Time) {
	for k, b := range rl.clients {
		if !now.Before(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
	rl.created = 0
}

func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP keys authenticated callers by email so one user behind many
// addresses shares a budget.
func KeyByUserOrIP(c *gin.Context) string {
	if email, ok := EmailFromContext(c); ok {
		return "user:" + strings.ToLower(email)
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	// strip a port if one slipped through
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
