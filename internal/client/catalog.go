package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/staybook/reviews/internal/domain"
	"github.com/staybook/reviews/pkg/httpclient"
)

// CatalogClient resolves property ownership from the catalog service.
type CatalogClient struct {
	http    HTTPDoer
	baseURL string
}

// NewCatalogClient creates a client for the catalog service.
func NewCatalogClient(doer HTTPDoer, baseURL string) *CatalogClient {
	return &CatalogClient{http: doer, baseURL: baseURL}
}

// GetPropertyOwner resolves a property to its owning realtor and title.
func (c *CatalogClient) GetPropertyOwner(ctx context.Context, propertyID string) (*domain.PropertyOwner, error) {
	url := fmt.Sprintf("%s/api/v1/properties/%s/owner", c.baseURL, propertyID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create property owner request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var body envelope[domain.PropertyOwner]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode property owner response: %w", err)
	}

	return &body.Data, nil
}

// ListRealtorProperties returns the IDs of every property owned by the realtor.
func (c *CatalogClient) ListRealtorProperties(ctx context.Context, realtorID string) ([]string, error) {
	url := fmt.Sprintf("%s/api/v1/realtors/%s/properties", c.baseURL, realtorID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create realtor properties request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var body envelope[[]struct {
		ID string `json:"id"`
	}]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode realtor properties response: %w", err)
	}

	ids := make([]string, len(body.Data))
	for i, p := range body.Data {
		ids[i] = p.ID
	}
	return ids, nil
}
