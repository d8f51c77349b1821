package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/cleaning-api/pkg/errors"
	"github.com/jwalitptl/cleaning-api/pkg/httputil"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

// Recovery turns a panic into a 500 with the standard error envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	log = log.With("recovery")
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(fmt.Errorf("panic: %v", r), "Request panic recovered",
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(ContextRequestID),
				)
				httputil.RespondWithError(c, apperrors.Internal(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
