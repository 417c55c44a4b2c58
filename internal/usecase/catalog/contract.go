package catalog

import (
	"context"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	"github.com/kailas-cloud/gplcatalog/internal/repository/partition"
)

// PartitionReader exposes the current consistent partition view.
type PartitionReader interface {
	View() *partition.View
}

// Searcher ranks a snapshot against a free-text query.
type Searcher interface {
	Search(
		ctx context.Context,
		part product.Partition,
		generation uint64,
		products []product.Product,
		q string,
	) ([]product.Product, error)
}

// LinkAuthorizer validates a customer api key against the link endpoint.
type LinkAuthorizer interface {
	Authorize(ctx context.Context, apiKey string) error
}

// DownloadResolver returns the first download file URL of a product.
type DownloadResolver interface {
	ProductDownloads(ctx context.Context, id int64) (string, error)
}
