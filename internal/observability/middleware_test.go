package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func serveLogged(t *testing.T, target string, handler gin.HandlerFunc) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	engine := gin.New()
	engine.Use(RequestLogger(logger))
	engine.GET("/api/users/:id", handler)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return buf.String()
}

func TestRequestLoggerIncludesRouteOperation(t *testing.T) {
	line := serveLogged(t, "/api/users/u1", func(c *gin.Context) {
		c.Set(RouteOperationKey, "user_get")
		c.Status(http.StatusOK)
	})
	if !strings.Contains(line, `"operation":"user_get"`) {
		t.Fatalf("operation missing from log line: %s", line)
	}
	if !strings.Contains(line, `"path":"/api/users/:id"`) {
		t.Fatalf("route template missing from log line: %s", line)
	}
	if !strings.Contains(line, `"level":"info"`) {
		t.Fatalf("expected info level: %s", line)
	}
}

func TestRequestLoggerLevelTracksStatus(t *testing.T) {
	line := serveLogged(t, "/api/users/u1", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})
	if !strings.Contains(line, `"level":"error"`) {
		t.Fatalf("expected error level for 502: %s", line)
	}
	if strings.Contains(line, `"operation"`) {
		t.Fatalf("operation field must be absent when unset: %s", line)
	}
}
