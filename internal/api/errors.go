package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType is the coarse category of a failure as shown to the user.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "NETWORK_ERROR"
	ErrorTypeAuth       ErrorType = "AUTH_ERROR"
	ErrorTypeServer     ErrorType = "SERVER_ERROR"
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeUnknown    ErrorType = "UNKNOWN_ERROR"
)

// Error is returned by Client and by local precondition checks.
type Error struct {
	Type ErrorType

	// Status is the HTTP status, zero when no response was received.
	Status int

	// Op names the request, e.g. "GET /notifications/user/1".
	Op string

	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports a client-side precondition failure.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

// TypeOf classifies err. Errors that did not come from this package are
// classified by their chain: context and net errors are network failures.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return ErrorTypeNetwork
	}
	return ErrorTypeUnknown
}

// IsAuthError reports whether err (or any error in its chain) is a 401.
func IsAuthError(err error) bool {
	return TypeOf(err) == ErrorTypeAuth
}

// IsNetworkError reports whether err is a connectivity, timeout or abort failure.
func IsNetworkError(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}

// ErrorInfo is the uniform {message, type} shape surfaced to the UI.
type ErrorInfo struct {
	Message string    `json:"message"`
	Type    ErrorType `json:"type"`
}

func (e *ErrorInfo) Error() string { return e.Message }

// Describe translates err into an ErrorInfo. It returns nil for a nil error.
func Describe(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	t := TypeOf(err)
	info := &ErrorInfo{Type: t}
	switch t {
	case ErrorTypeNetwork:
		info.Message = "Connection problem. Check your network and try again."
	case ErrorTypeAuth:
		info.Message = "Your session has expired. Please sign in again."
	case ErrorTypeServer:
		info.Message = "Server error. Please try again later."
	default:
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			info.Message = apiErr.Message
		} else {
			info.Message = err.Error()
		}
	}
	return info
}
