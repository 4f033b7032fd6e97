package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/domain"
	resp "reportdesk/internal/transport/http/response"
)

func testJWT() *auth.JWTer {
	return &auth.JWTer{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "reportdesk",
		Audience: "reportdesk-clients",
		TTL:      time.Minute,
	}
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, resp.Resp) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func bearer(t *testing.T, j *auth.JWTer, name string, roles ...string) *http.Request {
	t.Helper()
	tok, err := j.IssueAccessToken(name, roles)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestAuthJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := testJWT()
	r := gin.New()
	r.GET("/x", AuthJWT(j, domain.AdminRoleName), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeyLogin))
	})

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, body.ErrorCode)
	assert.Equal(t, domain.CodeInvalidToken, *body.ErrorCode)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	w, _ = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = serve(r, bearer(t, j, "alice", domain.DefaultRoleName))
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, body.ErrorCode)
	assert.Equal(t, resp.CodeForbidden, *body.ErrorCode)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, bearer(t, j, "root", domain.DefaultRoleName, domain.AdminRoleName))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root", w.Body.String())
}

func TestAuthJWTRejectsForeignIssuer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := testJWT()
	other := testJWT()
	other.Issuer = "someone-else"

	r := gin.New()
	r.GET("/x", AuthJWT(j), func(c *gin.Context) { c.Status(http.StatusOK) })
	w, _ := serve(r, bearer(t, other, "alice"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2"))
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/x", func(*gin.Context) { panic("boom") })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, body.ErrorCode)
	assert.Equal(t, domain.CodeInternalServerError, *body.ErrorCode)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
}

func TestRequestIDKeepsIncomingValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(KeyRequestID))
}

func TestTimeoutAnswers504WhenHandlerIsSilent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/x", func(c *gin.Context) { <-c.Request.Context().Done() })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	require.NotNil(t, body.ErrorCode)
	assert.Equal(t, resp.CodeTimeout, *body.ErrorCode)
}

func TestAccessLogLevelsAndMasking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/reports/:id", func(c *gin.Context) {
		c.Set(KeyErrorCode, domain.CodeReportNotFound)
		c.JSON(http.StatusNotFound, resp.Error(domain.CodeReportNotFound, "report not found"))
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/reports/9?token=abc&view=full", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	miss := entries[0]
	assert.Equal(t, zapcore.WarnLevel, miss.Level)
	fields := miss.ContextMap()
	assert.Equal(t, "/reports/:id", fields["route"])
	assert.EqualValues(t, domain.CodeReportNotFound, fields["error_code"])
	assert.NotContains(t, fmt.Sprint(fields["query"]), "abc")
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}
