package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reportdesk/internal/core/server"
	mdw "reportdesk/internal/transport/http/middleware"
	resp "reportdesk/internal/transport/http/response"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

func newEngine(l *zap.Logger) *gin.Engine {
	r := server.NewRouter(l)
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.RateLimitPerIP(50, 100),
		mdw.ConcurrencyLimit(300, 2*time.Second),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
	})
	return r
}

func mountOps(r *gin.Engine, checks map[string]Check) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		out := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				out[name] = err.Error()
				continue
			}
			out[name] = "ok"
		}
		out["ok"] = status == http.StatusOK
		c.JSON(status, out)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
