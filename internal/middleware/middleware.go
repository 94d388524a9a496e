package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID reuses an incoming X-Request-ID or generates one, and echoes it
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger writes one structured line per request through the global zerolog
// logger.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= 500 {
			evt = log.Error()
		}
		evt.
			Str("request_id", c.GetString(RequestIDKey)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status_code", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Str("error_message", c.Errors.ByType(gin.ErrorTypePrivate).String()).
			Msg("gin_request")
	}
}
