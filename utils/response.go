package utils

import (
	"net/http"
	"pushtrack/models"

	"github.com/gin-gonic/gin"
)

// OKResponse sends a 200 with an arbitrary success payload.
func OKResponse(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// BadRequestResponse sends a 400 with the flat error envelope.
func BadRequestResponse(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorBody{
		Success: false,
		Error:   message,
	})
}

// NotFoundResponse sends a 404 with the flat error envelope.
func NotFoundResponse(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorBody{
		Success: false,
		Error:   message,
	})
}

// InternalServerErrorResponse sends a 500 with the flat error envelope.
func InternalServerErrorResponse(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorBody{
		Success: false,
		Error:   message,
	})
}

// ErrorResponseFromErr maps a service error to its HTTP status and sends
// the flat error envelope with the error's message.
func ErrorResponseFromErr(c *gin.Context, err error) {
	message := err.Error()
	if serviceErr, ok := GetServiceError(err); ok {
		message = serviceErr.Message
		if serviceErr.Cause != nil {
			message = serviceErr.Cause.Error()
		}
	}
	c.JSON(StatusCodeFor(err), models.ErrorBody{
		Success: false,
		Error:   message,
	})
}

// TooManyRequestsResponse sends a 429 with the flat error envelope.
func TooManyRequestsResponse(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, models.ErrorBody{
		Success: false,
		Error:   message,
	})
}
