package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/domain"
	"reportdesk/internal/service"
	"reportdesk/internal/transport/http/handler"
	mdw "reportdesk/internal/transport/http/middleware"
)

type AdminDeps struct {
	Log    *zap.Logger
	JWT    *auth.JWTer
	Roles  *service.RoleService
	Checks map[string]Check
}

// NewAdminEngine serves role administration under /admin/v1. Every route
// requires the admin role.
func NewAdminEngine(d AdminDeps) *gin.Engine {
	r := newEngine(d.Log)
	mountOps(r, d.Checks)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, domain.AdminRoleName))
	mountAll(admin, handler.NewRoleHandler(d.Roles))
	return r
}
