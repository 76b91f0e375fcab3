package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/auth"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	g := r.Group("/notebooks/:id", NotebookAuth("secret"))
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(NotebookIDKey)) })
	return r
}

func TestRecovery(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":50000,"message":"internal error","data":null}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsKept(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestNotebookAuth(t *testing.T) {
	r := newEngine()
	tok, err := auth.SignJWT("nb1", "secret", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing", "/notebooks/nb1", "", http.StatusUnauthorized},
		{"garbage", "/notebooks/nb1", "Bearer nope", http.StatusUnauthorized},
		{"other notebook", "/notebooks/nb2", "Bearer " + tok, http.StatusForbidden},
		{"header", "/notebooks/nb1", "Bearer " + tok, http.StatusOK},
		{"query", "/notebooks/nb1?token=" + tok, "", http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, c.path, nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, c.status, w.Code)
			if c.status == http.StatusOK {
				assert.Equal(t, "nb1", w.Body.String())
			}
		})
	}
}
