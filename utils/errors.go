// File: /utils/errors.go
package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError represents a custom application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewNotFoundError covers missing records and records that do not belong
// to the expected parent.
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvariantViolationError covers operations rejected before mutation,
// like deleting a trip's last step or its destination step.
func NewInvariantViolationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

// IsInvariantViolation reports whether err is a rejected-operation error.
func IsInvariantViolation(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == http.StatusUnprocessableEntity
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == http.StatusNotFound
}

// HandleError sends an appropriate HTTP response for an error
func HandleError(c *gin.Context, err error) {
	if appErr, ok := err.(*AppError); ok {
		SendError(c, appErr.Code, appErr.Message)
		return
	}

	SendError(c, http.StatusInternalServerError, "Internal server error")
}
