package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourusername/mediadl/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newObservedAdapter() (*logger.LoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewLoggerAdapter(zap.New(core), nil), logs
}

func TestLogger_WritesAccessLog(t *testing.T) {
	adapter, logs := newObservedAdapter()
	router := gin.New()
	router.Use(Logger(adapter))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping?x=1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/ping", fields["route"])
		assert.Equal(t, "x=1", fields["query"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, w.Header().Get(RequestIDHeader), fields["request_id"])
	}
}

func TestLogger_KeepsClientRequestID(t *testing.T) {
	adapter, logs := newObservedAdapter()
	router := gin.New()
	router.Use(Logger(adapter))
	router.GET("/downloads/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/downloads/abc", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Equal(t, "/downloads/:id", entries[0].ContextMap()["route"])
	}
}

func TestLogger_HealthPollsAtDebug(t *testing.T) {
	adapter, logs := newObservedAdapter()
	router := gin.New()
	router.Use(Logger(adapter))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
	}
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	adapter, logs := newObservedAdapter()
	router := gin.New()
	router.Use(Logger(adapter), Recovery(adapter))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))
	assert.Equal(t, 1, logs.FilterMessage("Handler panicked").Len())
	assert.Equal(t, 1, logs.FilterMessage("HTTP error response").Len())
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
