// Package linkproxy checks customer api keys against the download-link endpoint.
package linkproxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 1 << 10
)

// Config holds the authorization endpoint.
type Config struct {
	EndpointURL string
	Timeout     time.Duration
}

// Client posts api keys to the authorization endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.EndpointURL == "" {
		return nil, errors.New("linkproxy: endpoint url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{endpoint: cfg.EndpointURL, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Authorize succeeds only when the endpoint answers 2xx with a JSON true body.
// A refusal returns domain.ErrUnauthorized; transport failures return
// domain.ErrUpstreamUnavailable.
func (c *Client) Authorize(ctx context.Context, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: link endpoint: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read link endpoint: %w", domain.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.NewUpstreamStatus("authorize", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("link endpoint status %d: %w", resp.StatusCode, domain.ErrUnauthorized)
	case !bytes.Equal(bytes.TrimSpace(body), []byte("true")):
		return fmt.Errorf("link endpoint refused key: %w", domain.ErrUnauthorized)
	}
	return nil
}
