package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/pkg/logger"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// pollRoutes are hit constantly by the CLI auto-start check and log at debug level
var pollRoutes = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// RequestID returns the ID assigned to the request by Logger
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

// Logger tags every request with an ID and writes the access log to the web
// category. Server errors are repeated in the error category.
func Logger(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		route := routeOf(c)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		web := logAdapter.Web()
		switch {
		case status >= 400:
			web.Warn("HTTP request", fields...)
		case pollRoutes[route]:
			web.Debug("HTTP request", fields...)
		default:
			web.Info("HTTP request", fields...)
		}

		if status >= 500 {
			logAdapter.LogError("HTTP error response", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
		}
	}
}
