package common

import (
	"errors"
	"net/http"

	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"github.com/gin-gonic/gin"
)

// APIResponse standard API response structure
type APIResponse struct {
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta,omitempty"`
	Warning *ErrorInfo  `json:"warning,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// Meta additional metadata
type Meta struct {
	Total  int64 `json:"total,omitempty"`
	Unread int   `json:"unread,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Data: data,
		Meta: meta,
	})
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	errInfo := &ErrorInfo{
		Code:    getErrorCode(status),
		Message: message,
	}
	if err != nil && status < 500 {
		errInfo.Details = err.Error()
	}

	c.JSON(status, APIResponse{Error: errInfo})
}

// HandleError maps a service error onto its HTTP status and writes it
func HandleError(c *gin.Context, err error) {
	status := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	ErrorResponse(c, status, message, err)
}

// WarningFor describes an error returned next to a change that still took
// effect. It returns nil when err is nil or means the operation failed.
func WarningFor(err error) *ErrorInfo {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotificationFailed):
		return &ErrorInfo{
			Code:    "NOTIFICATION_FAILED",
			Message: "status updated but the requester could not be notified",
		}
	case errors.Is(err, storage.ErrPersist):
		return &ErrorInfo{
			Code:    "NOT_PERSISTED",
			Message: "change applied but not yet written to storage",
		}
	default:
		return nil
	}
}

// StatusForError maps the error taxonomy onto HTTP status codes
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 429:
		return "RATE_LIMITED"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
