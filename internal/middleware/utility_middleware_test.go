package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"transfer-pricing/internal/utils"
	"transfer-pricing/pkg/logger"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())

	var fromCtx string
	r.GET("/ping", func(c *gin.Context) {
		fromCtx, _ = c.Request.Context().Value(logger.RequestIDKey).(string)
		c.Status(http.StatusNoContent)
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(utils.HeaderRequestID)
		if len(id) != 36 {
			t.Fatalf("request id %q does not look like a uuid", id)
		}
		if fromCtx != id {
			t.Errorf("context id %q, header id %q", fromCtx, id)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(utils.HeaderRequestID, "upstream-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if got := w.Header().Get(utils.HeaderRequestID); got != "upstream-42" || fromCtx != "upstream-42" {
			t.Errorf("header %q, context %q, want upstream-42", got, fromCtx)
		}
	})
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"wildcard", []string{"*"}, "https://agent.example", "*"},
		{"listed origin", []string{"https://agent.example"}, "https://agent.example", "https://agent.example"},
		{"unlisted origin", []string{"https://agent.example"}, "https://evil.example", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORSMiddleware(tc.allowed))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/x", nil)
			req.Header.Set("Origin", tc.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want 204", w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Errorf("allow origin = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggingMiddleware(logger.NewNop()))
	r.GET("/teapot", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d", w.Code)
	}
}
