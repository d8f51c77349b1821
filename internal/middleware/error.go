package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

// ErrorHandler logs the errors handlers attached to the context. If a
// handler recorded an error without writing a response, it writes one.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	log = log.With("http")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			if c.Writer.Status() >= http.StatusInternalServerError || !c.Writer.Written() {
				log.Error(e.Err, "Request error",
					"request_id", RequestIDFromContext(c.Request.Context()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
			}
		}

		if !c.Writer.Written() {
			httputil.RespondWithError(c, c.Errors.Last().Err)
		}
	}
}
