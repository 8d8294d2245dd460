package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/http/response"
)

// APIError implements huma.StatusError with the same body as chi handlers write.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status int
	response.ErrorBody
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func newAPIError(err *domainerrors.Error) *APIError {
	return &APIError{status: err.HTTPStatus(), ErrorBody: response.Body(err)}
}

// RegisterErrorHandler configures huma to render domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if domainErr, ok := domainerrors.Lookup(err); ok {
				return newAPIError(domainErr)
			}
		}

		// huma's request validation reports 422 with one detail per field.
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			return newAPIError(validationError(message, errs))
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("Unhandled error", "status", status, "message", message, "errors", errs)
			}
			return newAPIError(domainerrors.ErrInternal)
		}

		return &APIError{
			status: status,
			ErrorBody: response.ErrorBody{
				Message: message,
				Code:    string(statusToCode(status)),
			},
		}
	}
}

// validationError converts huma error details to a VALIDATION error keyed by field.
func validationError(message string, errs []error) *domainerrors.Error {
	details := map[string]string{}
	first := ""
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if !errors.As(err, &detailer) {
			continue
		}
		d := detailer.ErrorDetail()
		field := strings.TrimPrefix(d.Location, "body.")
		if field == "" {
			field = "body"
		}
		if _, seen := details[field]; !seen {
			details[field] = d.Message
		}
		if first == "" {
			first = field + " " + d.Message
		}
	}

	if first == "" {
		if message == "" {
			message = "Invalid request"
		}
		return domainerrors.Validation(message)
	}
	return domainerrors.ValidationWithDetails(first, details)
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeInvalidToken
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}
