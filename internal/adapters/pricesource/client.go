// Package pricesource contains one adapter per external price provider.
// Every adapter implements ports.PriceSource: it maps the normalized
// instrument symbol to the provider's naming, issues a single bounded-timeout
// request and extracts a price from the provider-specific response shape.
// Failures degrade to the ports error taxonomy and never escape as panics.
package pricesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"signalTracker/internal/ports"
)

// requestTimeout bounds every provider call so one unresponsive API cannot
// stall a poll cycle.
const requestTimeout = 10 * time.Second

// restClient is the shared HTTP plumbing for the JSON REST providers.
type restClient struct {
	http *http.Client
}

func newRESTClient() *restClient {
	return &restClient{http: &http.Client{Timeout: requestTimeout}}
}

// getJSON issues a GET and decodes the JSON body into out. Non-200 statuses
// map to the error taxonomy: 429 becomes ErrRateLimited, everything else
// ErrMalformedResponse. Providers that embed throttling notices in a 200
// response detect those in their own shape parsing.
func (c *restClient) getJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ports.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ports.ErrMalformedResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrMalformedResponse, err)
	}
	return nil
}

// base carries the fields common to the REST adapters.
type base struct {
	name   string
	apiKey string
	rc     *restClient
	logger ports.Logger
}

func (b base) Name() string { return b.name }

// requireCredential gates adapters with no configured key.
func (b base) requireCredential() error {
	if b.apiKey == "" {
		return ports.ErrNoCredential
	}
	return nil
}

// splitPair decomposes a six-letter currency pair into base and quote.
func splitPair(symbol string) (string, string) {
	return symbol[:3], symbol[3:]
}

// asFloat coerces the number-or-string price values some providers return.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
