package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			if apiErr.Log != nil {
				logger.Error("request failed",
					zap.Int("status", apiErr.Code),
					zap.String("request_id", c.GetString(RequestIDKey)),
					zap.Error(apiErr.Log),
				)
			}
			c.AbortWithStatusJSON(apiErr.Code, apiErr.Response())
			return
		}

		logger.Error("unhandled error",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
			Success: false,
			Error:   "An unexpected error occurred.",
		})
	}
}
