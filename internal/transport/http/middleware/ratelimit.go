package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "reportdesk/internal/transport/http/response"
)

func tooManyRequests(c *gin.Context, lim *rate.Limiter) {
	wait := time.Second
	if lim.Limit() > 0 {
		wait = max(time.Second, time.Duration(float64(time.Second)/float64(lim.Limit())))
	}
	c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, resp.Error(resp.CodeTooManyRequests, "too many requests"))
}

// RateLimit is a global token bucket.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			tooManyRequests(c, lim)
			return
		}
		c.Next()
	}
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiter keeps one bucket per client IP. Buckets idle for longer than
// idle are swept on the next sweep interval.
type ipLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*ipBucket
	swept   time.Time
	now     func() time.Time
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.swept) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim
}

// RateLimitPerIP keeps one token bucket per client IP.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	l := &ipLimiter{
		rps:     rps,
		burst:   burst,
		idle:    10 * time.Minute,
		buckets: make(map[string]*ipBucket),
		now:     time.Now,
	}
	return func(c *gin.Context) {
		lim := l.get(c.ClientIP())
		if !lim.Allow() {
			tooManyRequests(c, lim)
			return
		}
		c.Next()
	}
}
