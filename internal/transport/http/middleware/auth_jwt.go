package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/domain"
	resp "reportdesk/internal/transport/http/response"
)

const (
	KeyClaims = "claims"
	KeyLogin  = "login"
)

// AuthJWT requires a valid bearer access token. When requireRoles is not
// empty the token must carry at least one of them.
func AuthJWT(j *auth.JWTer, requireRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(domain.CodeInvalidToken, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(domain.CodeInvalidToken, domain.ErrInvalidToken.Msg))
			return
		}
		if len(requireRoles) > 0 && !claims.HasRole(requireRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyLogin, claims.Name)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthJWT.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
