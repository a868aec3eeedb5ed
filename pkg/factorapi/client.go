// Package factorapi is a client for a remote impact factor service.
package factorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the service has no factor for a key.
var ErrNotFound = errors.New("factorapi: factor not found")

// Client looks up factor vectors.
type Client interface {
	// Lookup fetches the vector for a kind/technology/location key.
	Lookup(ctx context.Context, key string) (*Factor, error)
}

// Factor is a single service response.
type Factor struct {
	Key     string             `json:"key"`
	Values  map[string]float64 `json:"values"`
	Source  string             `json:"source,omitempty"`
	Version string             `json:"version,omitempty"`
}

// StatusError carries a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("factorapi: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the service URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a factor service client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://factors.example.org",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, key string) (*Factor, error) {
	reqURL := c.baseURL + "/v1/factors?key=" + url.QueryEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "factorapi: create request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "factorapi: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "factorapi: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrNotFound, "key %s", key)
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var f Factor
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, eris.Wrap(err, "factorapi: decode response")
	}
	if len(f.Values) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "key %s has no values", key)
	}
	return &f, nil
}
