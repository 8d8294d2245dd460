// Package errors provides coded domain errors for the bookstore API.
//
// Services return *Error values; the HTTP layer renders them as
//
//	{"message": "...", "code": "...", "shouldLogout": true}
//
// with the status taken from the code. Callers match on codes with errors.Is:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound                 Code = "NOT_FOUND"
	CodeValidation               Code = "VALIDATION"
	CodeEmailTaken               Code = "EMAIL_TAKEN"
	CodeMissingImage             Code = "MISSING_IMAGE"
	CodeInvalidImage             Code = "INVALID_IMAGE"
	CodeSelfDeleteForbidden      Code = "SELF_DELETE_FORBIDDEN"
	CodeSelfAdminChangeForbidden Code = "SELF_ADMIN_CHANGE_FORBIDDEN"
	CodeNoToken                  Code = "NO_TOKEN"
	CodeInvalidToken             Code = "INVALID_TOKEN"
	CodeTokenExpired             Code = "TOKEN_EXPIRED"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeInvalidCredentials       Code = "INVALID_CREDENTIALS"
	CodeAdminRequired            Code = "ADMIN_REQUIRED"
	CodeForbidden                Code = "FORBIDDEN"
	CodeRateLimited              Code = "RATE_LIMITED"
	CodeInternal                 Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeEmailTaken, CodeMissingImage, CodeInvalidImage,
		CodeSelfDeleteForbidden, CodeSelfAdminChangeForbidden:
		return http.StatusBadRequest
	case CodeNoToken, CodeInvalidToken, CodeTokenExpired, CodeUserNotFound, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeAdminRequired, CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Message string `json:"message"`
	Code    Code   `json:"code"`
	// ShouldLogout tells the client its stored session is dead and must be cleared.
	ShouldLogout bool  `json:"shouldLogout,omitempty"`
	Details      any   `json:"details,omitempty"`
	cause        error // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus lets the error be written directly by huma operations.
func (e *Error) GetStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound                 = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation               = &Error{Code: CodeValidation, Message: "validation error"}
	ErrEmailTaken               = &Error{Code: CodeEmailTaken, Message: "User already exists"}
	ErrMissingImage             = &Error{Code: CodeMissingImage, Message: "Please upload an image file"}
	ErrSelfDeleteForbidden      = &Error{Code: CodeSelfDeleteForbidden, Message: "Cannot delete your own admin account"}
	ErrSelfAdminChangeForbidden = &Error{Code: CodeSelfAdminChangeForbidden, Message: "Cannot change your own admin status"}
	ErrNoToken                  = &Error{Code: CodeNoToken, Message: "Not authorized"}
	ErrInvalidToken             = &Error{Code: CodeInvalidToken, Message: "Not authorized"}
	ErrTokenExpired             = &Error{Code: CodeTokenExpired, Message: "Session expired", ShouldLogout: true}
	ErrUserNotFound             = &Error{Code: CodeUserNotFound, Message: "User not found", ShouldLogout: true}
	ErrInvalidCredentials       = &Error{Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrAdminRequired            = &Error{Code: CodeAdminRequired, Message: "Admin access required"}
	ErrForbidden                = &Error{Code: CodeForbidden, Message: "Not allowed to view this account"}
	ErrRateLimited              = &Error{Code: CodeRateLimited, Message: "Too many requests, please try again later"}
	ErrInternal                 = &Error{Code: CodeInternal, Message: "Internal server error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// InvalidImage creates an upload rejection error.
func InvalidImage(msg string) *Error {
	return &Error{Code: CodeInvalidImage, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// Lookup returns the domain error carried by err, if any.
func Lookup(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
