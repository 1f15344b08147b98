package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return router
}

func serve(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := newRouter(CORS())

	t.Run("rejects cross-origin request with empty whitelist default", func(t *testing.T) {
		w := serve(router, http.MethodGet, "http://malicious.com")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allows same-origin request with empty whitelist default", func(t *testing.T) {
		w := serve(router, http.MethodGet, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("handles OPTIONS preflight with empty whitelist", func(t *testing.T) {
		w := serve(router, http.MethodOptions, "http://some-origin.com")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("allows specific origin", func(t *testing.T) {
		router := newRouter(CORSWithConfig(CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		}))

		w := serve(router, http.MethodGet, "http://localhost:3000")
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, RequestIDHeader, w.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("rejects non-allowed origin", func(t *testing.T) {
		router := newRouter(CORSWithConfig(CORSConfig{AllowOrigins: []string{"http://localhost:3000"}}))
		w := serve(router, http.MethodGet, "http://evil.com")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("credentials not set with wildcard origin even if configured", func(t *testing.T) {
		router := newRouter(CORSWithConfig(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}))
		w := serve(router, http.MethodGet, "http://any.com")
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("handles OPTIONS preflight with allowed origin", func(t *testing.T) {
		router := newRouter(CORSWithConfig(CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "PATCH"},
		}))
		w := serve(router, http.MethodOptions, "http://localhost:3000")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, PATCH", w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestRequestID(t *testing.T) {
	router := newRouter(RequestID())

	t.Run("generates request ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "")
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "custom-request-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "custom-request-id", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "custom-request-id", w.Body.String())
	})
}

func TestSecure(t *testing.T) {
	w := serve(newRouter(Secure()), http.MethodGet, "")

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}
