package gplcatalog

import (
	"errors"
	"time"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	"github.com/kailas-cloud/gplcatalog/internal/usecase/syncer"
)

var errCatalogNotConfigured = errors.New("gplcatalog: catalog not configured (use WithCatalog)")

// Product is a catalog entry.
type Product = product.Product

// SearchRecord is the listing shape of a product.
type SearchRecord = product.SearchRecord

// Partition selects a catalog store.
type Partition = product.Partition

// Partition constants.
const (
	PartitionAll     = product.PartitionAll
	PartitionThemes  = product.PartitionThemes
	PartitionPlugins = product.PartitionPlugins
)

// SyncState is the orchestrator's position in a cycle.
type SyncState string

// SyncStatus reports the progress of the last sync cycles.
type SyncStatus struct {
	State       SyncState
	Page        int
	Cycles      int
	LastSuccess time.Time // zero if no cycle has succeeded
	LastError   string
	Products    int // all-items count of the last successful cycle
	Themes      int
	Plugins     int
	Rejected    int
}

func convertStatus(s syncer.Status) SyncStatus {
	out := SyncStatus{
		State:     SyncState(s.State),
		Page:      s.Page,
		Cycles:    s.Cycles,
		LastError: s.LastError,
	}
	if s.LastSuccess != nil {
		out.LastSuccess = *s.LastSuccess
	}
	if s.LastCounts != nil {
		out.Products = s.LastCounts.All
		out.Themes = s.LastCounts.Themes
		out.Plugins = s.LastCounts.Plugins
		out.Rejected = s.LastCounts.Rejected
	}
	return out
}
