package middleware

import (
	"github.com/gin-gonic/gin"

	"reportdesk/internal/core/reqid"
)

// KeyRequestID is the gin context key for the correlation id.
const KeyRequestID = reqid.Header

// RequestID echoes a well-formed incoming X-Request-ID or mints one, and
// stores it on both the gin context and the request context so that
// downstream publishers can forward it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := reqid.Accept(c.GetHeader(reqid.Header))
		c.Header(reqid.Header, rid)
		c.Set(KeyRequestID, rid)
		c.Request = c.Request.WithContext(reqid.With(c.Request.Context(), rid))
		c.Next()
	}
}
