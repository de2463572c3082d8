package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := NotFound("review", "rv-1")
	assert.Equal(t, "NOT_FOUND: review with id rv-1 not found", e.Error())

	wrapped := Internal(errors.New("pool exhausted"))
	assert.Contains(t, wrapped.Error(), "pool exhausted")
}

func TestAppError_Unwrap(t *testing.T) {
	e := Conflict("review already exists for this booking")
	require.True(t, errors.Is(e, ErrConflict))

	cause := errors.New("disk on fire")
	assert.True(t, errors.Is(Internal(cause), cause))
	assert.True(t, errors.Is(Internal(cause), ErrInternal))
	assert.True(t, errors.Is(Internal(nil), ErrInternal))
}

func TestHTTPStatus_AppError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("review", "x"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{InvalidInput("rating out of range"), http.StatusBadRequest},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{Forbidden("not the author"), http.StatusForbidden},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{Unavailable("broker down"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrAlreadyExists))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidInput))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("anything else")))
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("get review: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "dup", Message(Conflict("dup")))
	assert.Equal(t, "an internal error occurred", Message(errors.New("sql: secret detail")))
	assert.Equal(t, "resource not found", Message(ErrNotFound))
}
