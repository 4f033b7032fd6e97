package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resp "reportdesk/internal/transport/http/response"
)

// Timeout puts a deadline on the request context. Store, cache and broker
// calls observe it; if nothing was written by then the client gets 504.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if c.Writer.Written() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		c.Set(KeyErrorCode, resp.CodeTimeout)
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, resp.Error(resp.CodeTimeout, "request timed out"))
	}
}
