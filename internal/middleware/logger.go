package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

// Logger logs one line per request. Bodies are not logged since bookings
// carry customer addresses.
func Logger(log *logger.Logger) gin.HandlerFunc {
	zl := log.With("http").Zerolog()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		statusCode := c.Writer.Status()

		event := zl.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event = zl.Error()
			msg = "Server error"
			if last := c.Errors.Last(); last != nil {
				event = event.Err(last.Err)
			}
		case statusCode >= 400:
			event = zl.Warn()
			msg = "Client error"
		}

		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
