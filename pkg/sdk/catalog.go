package gplcatalog

import (
	"context"
	"fmt"
	"time"
)

// Sync runs one full catalog refresh and blocks until it completes.
// Returns ErrSyncInProgress if another cycle is running.
func (c *Client) Sync(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSync, "", start, err) }()

	if c.syncSvc == nil {
		return errCatalogNotConfigured
	}
	if err = c.syncSvc.Run(ctx); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// SyncStatus returns the orchestrator state. Zero value without WithCatalog.
func (c *Client) SyncStatus() SyncStatus {
	if c.syncSvc == nil {
		return SyncStatus{State: "idle"}
	}
	return convertStatus(c.syncSvc.Status())
}

// Records lists every product of the all-items store in listing shape.
func (c *Client) Records() []SearchRecord {
	return c.catalogSvc.ListAll()
}

// List returns every product of a partition, ordered by identifier.
func (c *Client) List(p Partition) (out []Product, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opList, p, start, err) }()

	out, err = c.catalogSvc.ListByPartition(p)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p, err)
	}
	return out, nil
}

// Search returns the best fuzzy matches of q in a partition. A blank q yields no results.
func (c *Client) Search(ctx context.Context, p Partition, q string) (out []Product, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opSearch, p, start, err) }()

	out, err = c.catalogSvc.Search(ctx, p, q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", p, err)
	}
	c.obs.searched(p, len(out))
	return out, nil
}

// Get looks up a product by identifier across all partitions.
func (c *Client) Get(id int64) (p Product, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opGet, PartitionAll, start, err) }()

	p, err = c.catalogSvc.GetByID(id)
	if err != nil {
		return Product{}, fmt.Errorf("get %d: %w", id, err)
	}
	return p, nil
}
