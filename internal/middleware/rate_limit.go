package middleware

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"betportal/internal/config"
	"betportal/internal/metrics"
	"betportal/internal/utils"
	apperrors "betportal/pkg/errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	idle     time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst for every client.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     3 * time.Minute,
	}
}

// Allow checks if a request from key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	if len(rl.visitors) > 1024 {
		rl.evictIdle(now)
	}
	return v.limiter.Allow()
}

// evictIdle drops visitors not seen recently; callers hold mu
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, key)
		}
	}
}

// RateLimit throttles requests per client
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter(cfg.RPS, cfg.Burst)
	limit := strconv.Itoa(cfg.Burst)

	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		if !limiter.Allow(getClientKey(c)) {
			metrics.RateLimitHits.WithLabelValues(c.FullPath()).Inc()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			utils.AppErrorResponse(c, apperrors.TooManyRequests("Rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// getClientKey prefers the authenticated username, then the forwarded IP
func getClientKey(c *gin.Context) string {
	if username := c.GetString(UsernameKey); username != "" {
		return "user:" + username
	}

	ip := c.ClientIP()
	if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
		ip = strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	} else if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		ip = realIP
	}
	return "ip:" + ip
}
