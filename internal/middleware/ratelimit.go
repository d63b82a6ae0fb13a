package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// InMemoryRateLimiter caps requests per key (e.g. client IP) within a fixed
// window. A key's counter resets when its window lapses; idle keys are swept
// in the background.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*requestWindow
	limit   int
	length  time.Duration
}

type requestWindow struct {
	count     int
	startedAt time.Time
}

func NewInMemoryRateLimiter(limit int, length time.Duration) *InMemoryRateLimiter {
	r := &InMemoryRateLimiter{
		windows: make(map[string]*requestWindow),
		limit:   limit,
		length:  length,
	}
	go r.sweep()
	return r
}

func (r *InMemoryRateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.windows[key]
	if w == nil || time.Since(w.startedAt) >= r.length {
		r.windows[key] = &requestWindow{count: 1, startedAt: time.Now()}
		return true
	}
	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

func (r *InMemoryRateLimiter) sweep() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		r.mu.Lock()
		for k, w := range r.windows {
			if time.Since(w.startedAt) >= r.length {
				delete(r.windows, k)
			}
		}
		r.mu.Unlock()
	}
}

// RateLimit returns a middleware that limits by client IP.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
