package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// KeyErrorCode holds the taxonomy code of a failed request, set by the
// action layer.
const KeyErrorCode = "errorCode"

var sensitiveQueryKeys = map[string]struct{}{
	"password": {}, "passwordconfirm": {}, "pwd": {}, "token": {}, "authorization": {},
	"secret": {}, "access_token": {}, "accesstoken": {}, "refresh_token": {}, "refreshtoken": {},
}

func maskQuery(q url.Values) map[string][]string {
	out := make(map[string][]string, len(q))
	for k, v := range q {
		if _, ok := sensitiveQueryKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
			continue
		}
		out[k] = v
	}
	return out
}

// AccessLog writes one line per request: error level for 5xx, warn for 4xx,
// debug for probes and info otherwise.
func AccessLog(l *zap.Logger) gin.HandlerFunc {
	l = l.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		lvl := zapcore.InfoLevel
		switch {
		case status >= 500:
			lvl = zapcore.ErrorLevel
		case status >= 400:
			lvl = zapcore.WarnLevel
		case route == "/health" || route == "/metrics":
			lvl = zapcore.DebugLevel
		}
		ce := l.Check(lvl, "request")
		if ce == nil {
			return
		}

		fields := []zap.Field{
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("login", c.GetString(KeyLogin)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.Int("size", c.Writer.Size()),
		}
		if code, ok := c.Get(KeyErrorCode); ok {
			fields = append(fields, zap.Any("error_code", code))
		}
		if q := c.Request.URL.Query(); len(q) > 0 {
			fields = append(fields, zap.Any("query", maskQuery(q)))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("ua", ua))
		}
		ce.Write(fields...)
	}
}
