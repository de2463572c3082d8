package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/staybook/reviews/pkg/httpclient"
)

// MediaClient deletes stored photo blobs from the media service.
type MediaClient struct {
	http    HTTPDoer
	baseURL string
}

// NewMediaClient creates a client for the media service.
func NewMediaClient(doer HTTPDoer, baseURL string) *MediaClient {
	return &MediaClient{http: doer, baseURL: baseURL}
}

// DeleteImage removes a stored image by its public ID. A missing image is
// treated as already deleted.
func (c *MediaClient) DeleteImage(ctx context.Context, publicID string) error {
	u := fmt.Sprintf("%s/api/v1/media/%s", c.baseURL, url.PathEscape(publicID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("create media delete request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call media service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return httpclient.ParseResponseError(resp, "media")
	}
}

// ExtractPublicID derives the storage public ID from a delivery URL. The
// public ID is everything after the upload segment, minus the version prefix
// and file extension. Returns "" for URLs that don't look like delivery URLs.
func ExtractPublicID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	const marker = "/upload/"
	idx := strings.Index(u.Path, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimPrefix(u.Path[idx+len(marker):], "/")

	// Drop a leading version segment like "v1712345678".
	if slash := strings.IndexByte(rest, '/'); slash > 1 && rest[0] == 'v' && isDigits(rest[1:slash]) {
		rest = rest[slash+1:]
	}

	if dot := strings.LastIndexByte(rest, '.'); dot > 0 && !strings.ContainsRune(rest[dot:], '/') {
		rest = rest[:dot]
	}
	return rest
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
