package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pushtrack/models"
)

// ErrorHandler provides panic recovery and a uniform error envelope for
// unhandled failures.
type ErrorHandler struct {
	environment string
	logger      *logrus.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(environment string, logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		environment: environment,
		logger:      logger,
	}
}

// Handle returns the error handling middleware.
func (eh *ErrorHandler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				eh.handlePanic(c, err)
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			eh.handleGinErrors(c)
		}
	}
}

func (eh *ErrorHandler) handlePanic(c *gin.Context, err interface{}) {
	eh.logger.WithFields(logrus.Fields{
		"panic":      err,
		"stack":      string(debug.Stack()),
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	}).Error("Panic recovered")

	message := "Internal server error"
	if eh.environment == "development" {
		if errValue, ok := err.(error); ok {
			message = errValue.Error()
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorBody{
		Success: false,
		Error:   message,
	})
}

func (eh *ErrorHandler) handleGinErrors(c *gin.Context) {
	lastErr := c.Errors.Last()
	eh.logger.WithFields(logrus.Fields{
		"error":      lastErr.Error(),
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
	}).Error("Unhandled request error")

	c.JSON(http.StatusInternalServerError, models.ErrorBody{
		Success: false,
		Error:   lastErr.Error(),
	})
}
