package utils

import (
	"fmt"
	"net/http"
)

// Error codes carried by ServiceError.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeStorage    = "STORAGE_ERROR"
	ErrCodeProvider   = "PROVIDER_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// ServiceError represents a service-level error with enough context for
// the HTTP layer to pick a status code without string matching.
type ServiceError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Cause      error  `json:"-"`
}

func (e ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e ServiceError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a client error for missing or malformed input.
func NewValidationError(message string) error {
	return ServiceError{
		Code:       ErrCodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates an error for an unknown resource.
func NewNotFoundError(message string) error {
	return ServiceError{
		Code:       ErrCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewStorageError wraps a persistence failure as a server error.
func NewStorageError(message string, cause error) error {
	return ServiceError{
		Code:       ErrCodeStorage,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewProviderError wraps a push-provider failure.
func NewProviderError(message string, cause error) error {
	return ServiceError{
		Code:       ErrCodeProvider,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// GetServiceError extracts a ServiceError from an error.
func GetServiceError(err error) (ServiceError, bool) {
	if serviceErr, ok := err.(ServiceError); ok {
		return serviceErr, true
	}
	return ServiceError{}, false
}

// StatusCodeFor maps an error to the HTTP status the handler should emit.
func StatusCodeFor(err error) int {
	if serviceErr, ok := GetServiceError(err); ok && serviceErr.StatusCode != 0 {
		return serviceErr.StatusCode
	}
	return http.StatusInternalServerError
}
