package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc Service) *gin.Engine {
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/users", h.Signup)
	r.GET("/users/admin/:email", h.IsAdmin)
	r.PATCH("/users/:id", h.SetRole)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupHandler(t *testing.T) {
	svc, _ := newTestService()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com","role":"admin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"acknowledged":true`)

	w = do(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"user already exists","insertedId":null}`, w.Body.String())

	w = do(r, http.MethodGet, "/users/admin/ann@x.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"admin":false}`, w.Body.String())

	w = do(r, http.MethodPost, "/users", `{"name":"Bob"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetRoleHandlerRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService()
	r := newTestRouter(svc)

	w := do(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPatch, "/users/some-id", `{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"invalid role"}`, w.Body.String())
}
