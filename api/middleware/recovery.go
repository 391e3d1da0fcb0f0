package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/pkg/logger"
)

// Recovery turns a handler panic into a 500 response. The queue keeps running;
// only the request that panicked is lost.
func Recovery(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logAdapter.LogError("Handler panicked",
				zap.Any("panic", r),
				zap.String("request_id", RequestID(c)),
				zap.String("route", routeOf(c)),
				zap.Stack("stack"),
			)
			// a streaming handler may already have written its headers
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "internal server error",
				"request_id": RequestID(c),
			})
		}()
		c.Next()
	}
}
