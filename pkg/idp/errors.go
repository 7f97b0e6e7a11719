package idp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider error type names we branch on. The provider has many more; they
// still come through as *APIError, just without a convenience predicate.
const (
	ErrTypeNotAuthorized       = "NotAuthorizedException"
	ErrTypeUserNotFound        = "UserNotFoundException"
	ErrTypeUserNotConfirmed    = "UserNotConfirmedException"
	ErrTypeInvalidParameter    = "InvalidParameterException"
	ErrTypeInvalidPassword     = "InvalidPasswordException"
	ErrTypeCodeMismatch        = "CodeMismatchException"
	ErrTypeExpiredCode         = "ExpiredCodeException"
	ErrTypeTooManyRequests     = "TooManyRequestsException"
	ErrTypePasswordResetNeeded = "PasswordResetRequiredException"
	ErrTypeResourceNotFound    = "ResourceNotFoundException"
)

// APIError is a provider rejection, surfaced unmodified: the provider's
// error type and message are preserved verbatim.
type APIError struct {
	Op         string // operation that failed
	StatusCode int
	Type       string // e.g. "NotAuthorizedException"
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("idp: %s: %s: %s", e.Op, e.Type, e.Message)
}

// IsNotAuthorized reports whether err is the provider rejecting the
// presented credentials or proof.
func IsNotAuthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeNotAuthorized
}

// IsUserNotFound reports whether err is the provider not knowing the user.
func IsUserNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeUserNotFound
}

// IsThrottled reports whether the provider throttled the request.
func IsThrottled(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrTypeTooManyRequests
}

// parseAPIError maps a non-200 provider response body onto an *APIError.
func parseAPIError(op string, status int, body []byte) error {
	var wire struct {
		Type    string `json:"__type"`
		Message string `json:"message"`
		// Some deployments capitalise the message key.
		MessageAlt string `json:"Message"`
	}
	_ = json.Unmarshal(body, &wire)

	msg := wire.Message
	if msg == "" {
		msg = wire.MessageAlt
	}
	if wire.Type == "" {
		return &APIError{
			Op:         op,
			StatusCode: status,
			Type:       "UnknownError",
			Message:    fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
		}
	}

	// The wire type can be namespaced ("com.example#NotAuthorizedException").
	if _, after, ok := strings.Cut(wire.Type, "#"); ok {
		wire.Type = after
	}

	return &APIError{Op: op, StatusCode: status, Type: wire.Type, Message: msg}
}
