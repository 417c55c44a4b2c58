package syncer

import (
	"context"
	"time"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// CatalogClient pages through upstream product records. Pages start at 1;
// an empty page marks the end of the catalog.
type CatalogClient interface {
	ListProducts(ctx context.Context, page, perPage int) ([]product.RawProduct, error)
}

// PartitionWriter atomically replaces partition contents.
type PartitionWriter interface {
	ReplaceAll(ctx context.Context, batches map[product.Partition]map[int64]product.Product) error
}

// Recorder receives sync metrics.
type Recorder interface {
	PageFetched()
	RecordRejected()
	CycleFinished(status string, d time.Duration)
	PartitionSize(partition string, n int)
}

type nopRecorder struct{}

func (nopRecorder) PageFetched()                        {}
func (nopRecorder) RecordRejected()                     {}
func (nopRecorder) CycleFinished(string, time.Duration) {}
func (nopRecorder) PartitionSize(string, int)           {}
