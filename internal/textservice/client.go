package textservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/pensieri/internal/apperr"
)

// DefaultTimeout bounds a single call to a remote text service.
const DefaultTimeout = 60 * time.Second

// maxResponseSize caps the body read from a remote text service.
const maxResponseSize = 1 << 20

// Client posts requests to a remote endpoint speaking the generation
// contract. Any network error, non-2xx status or body without a result is
// reported as apperr.ErrTextService. Calls are never retried.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for endpoint. A zero timeout uses DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("textservice: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("textservice: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("textservice: %w: %w", apperr.ErrTextService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return "", fmt.Errorf("textservice: %w: status %d", apperr.ErrTextService, resp.StatusCode)
	}

	var out struct {
		Result *string `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return "", fmt.Errorf("textservice: %w: decode response: %w", apperr.ErrTextService, err)
	}
	if out.Result == nil {
		return "", fmt.Errorf("textservice: %w: response has no result", apperr.ErrTextService)
	}
	return *out.Result, nil
}
