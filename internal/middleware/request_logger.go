package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// RequestLogger logs HTTP requests with structured logging. Probe and
// scrape endpoints log at debug so they do not flood the output.
func RequestLogger(quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"query":      c.Request.URL.RawQuery,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}

		message := "HTTP request"
		switch {
		case status >= 500:
			logger.Error(message, nil, fields)
		case status >= 400:
			logger.Warn(message, fields)
		default:
			if _, ok := quiet[path]; ok {
				logger.Debug(message, fields)
				return
			}
			logger.Info(message, fields)
		}
	}
}
