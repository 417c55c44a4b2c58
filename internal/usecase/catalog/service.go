// Package catalog serves list, search, lookup and download-link requests
// over the partition stores.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// lookupOrder is the order stores are consulted when resolving an identifier.
var lookupOrder = []product.Partition{
	product.PartitionAll,
	product.PartitionThemes,
	product.PartitionPlugins,
}

// Service is the read side of the catalog.
type Service struct {
	parts     PartitionReader
	search    Searcher
	auth      LinkAuthorizer
	downloads DownloadResolver
}

// New creates a Service. auth and downloads may be nil when download links are disabled.
func New(parts PartitionReader, search Searcher, auth LinkAuthorizer, downloads DownloadResolver) *Service {
	return &Service{parts: parts, search: search, auth: auth, downloads: downloads}
}

// ListAll returns the listing records of the all-items store.
func (s *Service) ListAll() []product.SearchRecord {
	return s.parts.View().Partition(product.PartitionAll).SearchRecords()
}

// ListByPartition returns every product of a partition in snapshot order.
func (s *Service) ListByPartition(p product.Partition) ([]product.Product, error) {
	if err := validPartition(p); err != nil {
		return nil, err
	}
	return s.parts.View().Partition(p).Products(), nil
}

// Search returns the top matches for q within partition p.
func (s *Service) Search(ctx context.Context, p product.Partition, q string) ([]product.Product, error) {
	if err := validPartition(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q) == "" {
		return []product.Product{}, nil
	}

	v := s.parts.View()
	res, err := s.search.Search(ctx, p, v.Generation(), v.Partition(p).Products(), q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", p, err)
	}
	return res, nil
}

// GetByID resolves an identifier against the all-items store first, then the typed
// stores. Returns domain.ErrNotFound if no store holds it.
func (s *Service) GetByID(id int64) (product.Product, error) {
	v := s.parts.View()
	for _, p := range lookupOrder {
		if prod, ok := v.Partition(p).Get(id); ok {
			return prod, nil
		}
	}
	return product.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
}

// DownloadLink authorizes apiKey and returns the product's first download URL.
func (s *Service) DownloadLink(ctx context.Context, id int64, apiKey string) (string, error) {
	if s.auth == nil || s.downloads == nil {
		return "", fmt.Errorf("download links not configured: %w", domain.ErrUnauthorized)
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("empty api key: %w", domain.ErrUnauthorized)
	}

	if err := s.auth.Authorize(ctx, apiKey); err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}

	url, err := s.downloads.ProductDownloads(ctx, id)
	if err != nil {
		return "", fmt.Errorf("product %d downloads: %w", id, err)
	}
	return url, nil
}

func validPartition(p product.Partition) error {
	for _, known := range product.Partitions {
		if p == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownPartition, p)
}
