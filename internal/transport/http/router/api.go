package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/service"
	"reportdesk/internal/transport/http/handler"
	mdw "reportdesk/internal/transport/http/middleware"
)

type APIDeps struct {
	Log     *zap.Logger
	JWT     *auth.JWTer
	Auth    *service.AuthService
	Tokens  *service.TokenService
	Reports *service.ReportService
	Checks  map[string]Check
}

// NewAPIEngine serves the public API under /api/v1.
func NewAPIEngine(d APIDeps) *gin.Engine {
	r := newEngine(d.Log)
	mountOps(r, d.Checks)

	api := r.Group("/api/v1")
	authH := handler.NewAuthHandler(d.Auth, d.Tokens)
	mountAll(api, ModuleFunc(authH.MountPublic))

	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT))
	mountAll(authed,
		ModuleFunc(authH.MountAuthed),
		handler.NewReportHandler(d.Reports),
	)
	return r
}
