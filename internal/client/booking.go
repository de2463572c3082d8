package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/pkg/httpclient"
)

// BookingClient resolves bookings from the booking service.
type BookingClient struct {
	http    HTTPDoer
	baseURL string
}

// NewBookingClient creates a client for the booking service.
func NewBookingClient(doer HTTPDoer, baseURL string) *BookingClient {
	return &BookingClient{http: doer, baseURL: baseURL}
}

// GetBooking fetches a booking by ID. A 404 from the booking service maps to
// apperrors.ErrNotFound.
func (c *BookingClient) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	url := fmt.Sprintf("%s/api/v1/bookings/%s", c.baseURL, bookingID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create booking request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call booking service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "booking")
	}

	var body envelope[domain.Booking]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}

	return &body.Data, nil
}
