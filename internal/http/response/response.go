// Package response writes JSON bodies and domain errors for plain net/http handlers.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message      string `json:"message" doc:"Human-readable error message"`
	Code         string `json:"code" doc:"Machine-readable error code"`
	ShouldLogout bool   `json:"shouldLogout,omitempty" doc:"Client must discard its session"`
	Details      any    `json:"details,omitempty" doc:"Additional error details"`
}

// MessageBody is a bare confirmation message.
type MessageBody struct {
	Message string `json:"message" doc:"Status message"`
}

// Body converts a domain error to its response shape.
func Body(err *domainerrors.Error) ErrorBody {
	return ErrorBody{
		Message:      err.Message,
		Code:         string(err.Code),
		ShouldLogout: err.ShouldLogout,
		Details:      err.Details,
	}
}

// JSON writes data as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes a 200 OK response.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Created writes a 201 Created response.
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	JSON(w, status, MessageBody{Message: msg}, logger)
}

// Error renders err. Domain errors keep their code and status; anything else
// is logged and becomes a generic 500.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	domainErr, ok := domainerrors.Lookup(err)
	if !ok {
		if logger != nil {
			logger.Error("Unhandled error", "error", err)
		}
		domainErr = domainerrors.ErrInternal
	}

	JSON(w, domainErr.HTTPStatus(), Body(domainErr), logger)
}

// BadRequest writes a 400 validation error with msg.
func BadRequest(w http.ResponseWriter, msg string, logger *slog.Logger) {
	Error(w, domainerrors.Validation(msg), logger)
}

// NotFound writes a 404 with msg.
func NotFound(w http.ResponseWriter, msg string, logger *slog.Logger) {
	Error(w, domainerrors.NotFound(msg), logger)
}

// TooManyRequests writes a 429.
func TooManyRequests(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, domainerrors.ErrRateLimited, logger)
}
