package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request. Handlers may set "fileName" on
// the context to have it included.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if fileName := c.GetString("fileName"); fileName != "" {
			fields["file_name"] = fileName
		}
		telemetry.Info("request.complete", fields)
	}
}
