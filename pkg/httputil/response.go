package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/staybook/reviews/pkg/errors"
	"github.com/staybook/reviews/pkg/logger"
	"github.com/staybook/reviews/pkg/validator"
)

// Envelope is the platform-wide JSON response shape. Successful responses
// carry `success: true` and a data payload; failures carry `success: false`,
// a message, and the HTTP status repeated in the body.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	StatusCode int               `json:"statusCode,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status. Encoding failures are
// unrecoverable once headers are sent, so they are silently dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope with the given payload.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteError translates err into the platform error envelope. AppErrors keep
// their message and status; anything else collapses to 500 with a generic
// message, logged through the request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Envelope{
		Success:    false,
		Message:    apperrors.Message(err),
		StatusCode: status,
	})
}

// WriteValidationError writes a 400 envelope. Field-level errors from the
// validator package are included when present.
func WriteValidationError(w http.ResponseWriter, err error) {
	env := Envelope{
		Success:    false,
		Message:    err.Error(),
		StatusCode: http.StatusBadRequest,
	}
	if fieldErr, ok := validator.AsFieldErrors(err); ok {
		env.Message = "request validation failed"
		env.Fields = fieldErr.Fields()
	}
	WriteJSON(w, http.StatusBadRequest, env)
}

// Paginated is the list payload carried inside a success envelope.
type Paginated[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPaginated builds a Paginated payload, normalizing a nil slice to empty.
func NewPaginated[T any](items []T, totalCount, page, limit int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = totalCount / limit
		if totalCount%limit > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
