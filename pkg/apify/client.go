// Package apify provides a client for running Apify actors synchronously and
// reading their dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
)

const serviceName = "apify"

// Client defines the Apify operations used by the lead pipeline.
type Client interface {
	// RunSync starts an actor with the given input, waits for the run to
	// finish, and returns the items of its default dataset.
	RunSync(ctx context.Context, actorID string, input any) ([]map[string]any, error)
}

// Option configures the Apify client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
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
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.apify.com/v2",
		http: &http.Client{
			// Actor runs are synchronous; the caller's context bounds them.
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) RunSync(ctx context.Context, actorID string, input any) ([]map[string]any, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "apify: marshal input")
	}

	reqURL := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "apify: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.Classify(serviceName, eris.Wrapf(err, "apify: run actor %s", actorID))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Classify(serviceName, eris.Wrap(err, "apify: read response body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.StatusError(serviceName, resp.StatusCode, string(body))
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, eris.Wrap(err, "apify: unmarshal dataset items")
	}
	if items == nil {
		items = []map[string]any{}
	}
	return items, nil
}
