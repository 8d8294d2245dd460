package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeEmailTaken, http.StatusBadRequest},
		{CodeMissingImage, http.StatusBadRequest},
		{CodeInvalidImage, http.StatusBadRequest},
		{CodeSelfDeleteForbidden, http.StatusBadRequest},
		{CodeSelfAdminChangeForbidden, http.StatusBadRequest},
		{CodeNoToken, http.StatusUnauthorized},
		{CodeInvalidToken, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeUserNotFound, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeAdminRequired, http.StatusForbidden},
		{CodeForbidden, http.StatusForbidden},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("Book not found")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))

	wrapped := fmt.Errorf("get book: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
}

func TestError_WithCause(t *testing.T) {
	cause := New("disk full")
	err := ErrInternal.WithCause(cause)

	assert.Equal(t, "Internal server error: disk full", err.Error())
	assert.True(t, Is(err, cause))
	// The sentinel itself is untouched.
	assert.Nil(t, ErrInternal.Unwrap())
}

func TestError_WithDetails(t *testing.T) {
	err := ErrValidation.WithDetails(map[string]string{"email": "is required"})

	assert.Equal(t, CodeValidation, err.Code)
	assert.NotNil(t, err.Details)
	assert.Nil(t, ErrValidation.Details)
}

func TestSessionErrorsRequestLogout(t *testing.T) {
	assert.True(t, ErrTokenExpired.ShouldLogout)
	assert.True(t, ErrUserNotFound.ShouldLogout)
	assert.False(t, ErrInvalidToken.ShouldLogout)
	assert.False(t, ErrNoToken.ShouldLogout)
}

func TestLookup(t *testing.T) {
	got, ok := Lookup(fmt.Errorf("wrap: %w", ErrAdminRequired))
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, got.GetStatus())

	_, ok = Lookup(New("plain"))
	assert.False(t, ok)
}

func TestWrapf(t *testing.T) {
	cause := New("boom")
	err := Wrapf(cause, CodeInternal, "save book %s", "book-1")

	assert.Equal(t, "save book book-1: boom", err.Error())
	assert.Equal(t, cause, err.Unwrap())
}
