package apierror

import (
	"fmt"
	"net/http"
)

// APIError carries the HTTP status a failure should be reported with.
type APIError struct {
	StatusCode int      `json:"statusCode"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Errors)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(status int, message string, errs ...string) *APIError {
	return &APIError{StatusCode: status, Code: codeFor(status), Message: message, Errors: errs}
}

func BadRequest(message string, errs ...string) *APIError {
	return New(http.StatusBadRequest, message, errs...)
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, message)
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, message)
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_TYPE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
