package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	newRouter().ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatalf("Expected a generated request ID")
	}
	if w.Body.String() != id {
		t.Errorf("Expected handler to see %q, got %q", id, w.Body.String())
	}
}

func TestRequestIDPropagated(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	newRouter().ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected incoming request ID to be echoed, got %q", got)
	}
}
