package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the structured error carried from services up to the HTTP layer.
// Handlers never build status codes themselves; they return an *Error (or a
// plain error, which the terminal handler treats as Internal).
type Error struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error with an explicit status code.
func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// BadRequest indicates malformed or missing input.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized indicates a missing, invalid, or expired credential.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotFound indicates a referenced entity is absent.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict indicates a uniqueness violation.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Internal wraps an unexpected failure. The cause is preserved for logging
// but never serialized to the client.
func Internal(message string, cause error) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Message: message, cause: cause}
}

// From extracts the structured error from err, or wraps it as Internal when
// the chain carries no *Error.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("Internal server error", err)
}
