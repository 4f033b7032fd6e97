package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reportdesk/internal/service"
	httpez "reportdesk/internal/transport/http/ez"
)

type AuthHandler struct {
	auth   *service.AuthService
	tokens *service.TokenService
}

func NewAuthHandler(a *service.AuthService, t *service.TokenService) *AuthHandler {
	return &AuthHandler{auth: a, tokens: t}
}

// MountPublic registers the endpoints that need no access token.
func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[service.RegisterInput, service.UserView]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.RegisterInput) (service.UserView, error) {
			return h.auth.Register(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.LoginInput, service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.LoginInput) (service.TokenPair, error) {
			return h.auth.Login(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.RefreshInput, service.TokenPair]{
		Method: http.MethodPost,
		Path:   "/token/refresh",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.RefreshInput) (service.TokenPair, error) {
			return h.tokens.Refresh(c.Request.Context(), *in)
		},
	})
}

// MountAuthed registers /me on a group already guarded by AuthJWT.
func (h *AuthHandler) MountAuthed(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g), httpez.Action[struct{}, service.UserView]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (service.UserView, error) {
			return h.auth.Me(c.Request.Context(), httpez.Login(c))
		},
	})
}
