package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reportdesk/internal/domain"
	"reportdesk/internal/service"
	httpez "reportdesk/internal/transport/http/ez"
)

type RoleHandler struct{ svc *service.RoleService }

func NewRoleHandler(s *service.RoleService) *RoleHandler { return &RoleHandler{svc: s} }

// Mount registers role administration. Every action re-checks the admin
// role on top of the group guard.
func (h *RoleHandler) Mount(g *gin.RouterGroup) {
	ez := httpez.New(g)
	admin := []string{domain.AdminRoleName}

	httpez.RegisterAction(ez, httpez.Action[struct{}, []domain.Role]{
		Method: http.MethodGet,
		Path:   "/roles",
		Binder: httpez.BindNone,
		Roles:  admin,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Role, error) {
			return h.svc.ListRoles(c.Request.Context())
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.RoleInput, domain.Role]{
		Method: http.MethodPost,
		Path:   "/roles",
		Binder: httpez.BindJSON,
		Roles:  admin,
		Handler: func(c *gin.Context, in *service.RoleInput) (domain.Role, error) {
			return h.svc.CreateRole(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateRoleInput, domain.Role]{
		Method: http.MethodPut,
		Path:   "/roles",
		Binder: httpez.BindJSON,
		Roles:  admin,
		Handler: func(c *gin.Context, in *service.UpdateRoleInput) (domain.Role, error) {
			return h.svc.UpdateRole(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[idURI, domain.Role]{
		Method: http.MethodDelete,
		Path:   "/roles/:id",
		Binder: httpez.BindURI,
		Roles:  admin,
		Handler: func(c *gin.Context, in *idURI) (domain.Role, error) {
			return h.svc.DeleteRole(c.Request.Context(), in.ID)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UserRoleInput, service.UserRolesView]{
		Method: http.MethodPost,
		Path:   "/roles/users",
		Binder: httpez.BindJSON,
		Roles:  admin,
		Handler: func(c *gin.Context, in *service.UserRoleInput) (service.UserRolesView, error) {
			return h.svc.AddRoleForUser(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateUserRoleInput, service.UserRolesView]{
		Method: http.MethodPut,
		Path:   "/roles/users",
		Binder: httpez.BindJSON,
		Roles:  admin,
		Handler: func(c *gin.Context, in *service.UpdateUserRoleInput) (service.UserRolesView, error) {
			return h.svc.UpdateRoleForUser(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.DeleteUserRoleInput, service.UserRolesView]{
		Method: http.MethodDelete,
		Path:   "/roles/users",
		Binder: httpez.BindJSON,
		Roles:  admin,
		Handler: func(c *gin.Context, in *service.DeleteUserRoleInput) (service.UserRolesView, error) {
			return h.svc.DeleteRoleForUser(c.Request.Context(), *in)
		},
	})
}
