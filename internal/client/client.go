package client

import (
	"context"
	"net/http"
)

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.BreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// envelope is the platform success wrapper collaborating services respond with.
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}
