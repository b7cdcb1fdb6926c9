package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"vigil/pkg/metrics"
)

type Limiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             10.0,
		Burst:           20,
		CleanupInterval: 5 * time.Minute,
		MaxAge:          10 * time.Minute,
	}
}

// clientLimiters tracks one token bucket per client IP. Idle entries
// are swept so the map does not grow with every address ever seen.
type clientLimiters struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	rps      float64
	burst    int
}

func (cl *clientLimiters) get(ip string) *Limiter {
	cl.mu.RLock()
	limiter, exists := cl.limiters[ip]
	cl.mu.RUnlock()

	if !exists {
		cl.mu.Lock()
		limiter, exists = cl.limiters[ip]
		if !exists {
			limiter = &Limiter{
				limiter:  rate.NewLimiter(rate.Limit(cl.rps), cl.burst),
				lastSeen: time.Now(),
			}
			cl.limiters[ip] = limiter
		}
		cl.mu.Unlock()
	}

	limiter.mu.Lock()
	limiter.lastSeen = time.Now()
	limiter.mu.Unlock()

	return limiter
}

func (cl *clientLimiters) sweep(maxAge time.Duration) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	now := time.Now()
	for ip, limiter := range cl.limiters {
		limiter.mu.Lock()
		lastSeen := limiter.lastSeen
		limiter.mu.Unlock()
		if now.Sub(lastSeen) > maxAge {
			delete(cl.limiters, ip)
		}
	}
}

func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	clients := &clientLimiters{
		limiters: make(map[string]*Limiter),
		rps:      config.RPS,
		burst:    config.Burst,
	}

	go func() {
		ticker := time.NewTicker(config.CleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			clients.sweep(config.MaxAge)
		}
	}()

	return func(c *gin.Context) {
		// Probes must never see a 429; kubelet treats one as unhealthy.
		switch c.FullPath() {
		case "/health", "/metrics":
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.RemoteIP()
		}

		limiter := clients.get(clientIP)

		if !limiter.limiter.Allow() {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("X-RateLimit-Limit", formatRate(config.RPS))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"error_code": "RATE_LIMIT_EXCEEDED",
			})
			c.Abort()
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()

		c.Header("X-RateLimit-Limit", formatRate(config.RPS))
		remaining := int(limiter.limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

func formatRate(rps float64) string {
	return strconv.Itoa(int(rps))
}
