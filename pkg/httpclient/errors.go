package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/staybook/reviews/pkg/errors"
)

// downstreamError is the platform error envelope returned by collaborating
// services.
type downstreamError struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError, preserving the downstream message when the body matches
// the platform error envelope. The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	message := ""
	var downstream downstreamError
	if json.Unmarshal(bodyBytes, &downstream) == nil && downstream.Message != "" {
		message = downstream.Message
	}

	return mapDownstreamError(resp.StatusCode, message, serviceName)
}

// mapDownstreamError translates a downstream status code into an AppError so
// error semantics survive the service hop.
func mapDownstreamError(status int, message, serviceName string) error {
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch status {
	case http.StatusNotFound:
		return apperrors.NotFoundMessage(qualified)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case http.StatusConflict:
		return apperrors.Conflict(qualified)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return apperrors.Unavailable(qualified)
	default:
		return apperrors.Internal(fmt.Errorf("%s returned status %d: %s", serviceName, status, message))
	}
}
