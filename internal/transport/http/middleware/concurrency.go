package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "reportdesk/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests so that bursts queue in front of
// the database pool instead of inside it. A request that cannot get a slot
// within wait is answered 503.
func ConcurrencyLimit(limit int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(limit)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
			err := sem.Acquire(ctx, 1)
			cancel()
			if err != nil {
				c.Header("Retry-After", "1")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.Error(resp.CodeUnavailable, "server busy"))
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
