package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	mdw "reportdesk/internal/transport/http/middleware"
	resp "reportdesk/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindURI   Binder = "uri"  // path params via `uri` tags
	BindNone  Binder = "none" // handler reads c.Param itself
)

// Action is one endpoint: I is the bound input, O the payload placed in the
// envelope's data field.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Roles   []string // any-of, checked against the access token claims
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction mounts a on e. Binding failures answer 400 (413 for an
// oversized body) and handler errors go through response.FromError.
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if len(a.Roles) > 0 {
			claims, ok := mdw.ClaimsFrom(c)
			if !ok {
				c.JSON(http.StatusUnauthorized, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if !claims.HasRole(a.Roles...) {
				c.JSON(http.StatusForbidden, resp.Error(resp.CodeForbidden, "forbidden"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		case BindURI:
			bindErr = c.ShouldBindUri(&in)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(bindErr, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, resp.Error(resp.CodeTooLarge, "request body too large"))
			return
		}
		if bindErr != nil {
			c.JSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			status, body := resp.FromError(err)
			c.Set(mdw.KeyErrorCode, *body.ErrorCode)
			c.JSON(status, body)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

// Login returns the authenticated login, or "" on public routes.
func Login(c *gin.Context) string { return c.GetString(mdw.KeyLogin) }
