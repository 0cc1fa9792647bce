package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes used across services. The HTTP status travels with the error;
// handlers map everything through RespondError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeUnauth     = "UNAUTHORIZED"
	CodeForbidden  = "FORBIDDEN"
	CodeNotFound   = "NOT_FOUND"
	CodeRateLimit  = "RATE_LIMIT"
	CodeLocked     = "LOCKED"
	CodeInternal   = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type AppError struct {
	Status     int
	Code       string
	Message    string
	Details    interface{}
	RetryAfter int
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, code, message string, details interface{}) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Details: details}
}

// NewRateLimitError carries the retry-after window so the boundary can emit
// the Retry-After header.
func NewRateLimitError(message string, retryAfter int) *AppError {
	return &AppError{
		Status:     http.StatusTooManyRequests,
		Code:       CodeRateLimit,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

func RespondError(c *gin.Context, err error) {
	appErr, ok := err.(*AppError)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
			Code:    CodeInternal,
			Message: "internal server error",
		}})
		return
	}

	if appErr.RetryAfter > 0 {
		c.Header("Retry-After", fmt.Sprintf("%d", appErr.RetryAfter))
	}
	c.JSON(appErr.Status, ErrorResponse{Error: ErrorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

func RespondValidationError(c *gin.Context, details interface{}) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
		Code:    CodeValidation,
		Message: "invalid request",
		Details: details,
	}})
}

func RespondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}
