package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/canteen-api/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error pushed with c.Error as an RFC 9457
// problem. Anything that is not an *api.Problem becomes an opaque 500.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		reqID := c.GetString(RequestIDKey)

		var problem *api.Problem
		if errors.As(err, &problem) {
			if problem.Log != nil {
				logger.Error("Request failed",
					zap.String("request_id", reqID),
					zap.Int("status", problem.Status),
					zap.Error(problem.Log),
				)
			}
			if problem.Instance == "" {
				problem.Instance = c.Request.URL.Path
			}
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		logger.Error("Unhandled error", zap.String("request_id", reqID), zap.Error(err))

		c.JSON(http.StatusInternalServerError, api.NewError(
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected error occurred.",
		))
		c.Abort()
	}
}
