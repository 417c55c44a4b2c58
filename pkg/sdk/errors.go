package gplcatalog

import "github.com/kailas-cloud/gplcatalog/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound             = domain.ErrNotFound
	ErrUpstreamUnavailable  = domain.ErrUpstreamUnavailable
	ErrSyncInProgress       = domain.ErrSyncInProgress
	ErrUnknownPartition     = domain.ErrUnknownPartition
	ErrCatalogNotConfigured = errCatalogNotConfigured
)
