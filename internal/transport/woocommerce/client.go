// Package woocommerce reads products from the WooCommerce REST API (wc/v3).
package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

const (
	productsPath   = "/wp-json/wc/v3/products"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Config holds the store URL and REST API credentials.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	UserAgent      string
	Timeout        time.Duration
}

// Client is a minimal WooCommerce REST client.
type Client struct {
	base      *url.URL
	key       string
	secret    string
	userAgent string
	http      *http.Client
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("woocommerce: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("woocommerce: base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		base:      base,
		key:       cfg.ConsumerKey,
		secret:    cfg.ConsumerSecret,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ListProducts returns one page of products. Pages start at 1.
func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]product.RawProduct, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	var out []product.RawProduct
	if err := c.get(ctx, "list products", productsPath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductDownloads returns the URL of the product's first downloadable file.
func (c *Client) ProductDownloads(ctx context.Context, id int64) (string, error) {
	var p product.RawProduct
	if err := c.get(ctx, "get product", productsPath+"/"+strconv.FormatInt(id, 10), nil, &p); err != nil {
		return "", err
	}
	if len(p.Downloads) == 0 || p.Downloads[0].File == "" {
		return "", fmt.Errorf("product %d: %w", id, domain.ErrNoDownload)
	}
	return p.Downloads[0].File, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s", domain.NewUpstreamStatus(op, resp.StatusCode), strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
