package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing product.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidProduct signals a malformed upstream record.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrUpstreamUnavailable signals a catalog fetch failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrSyncInProgress signals that a sync cycle is already running.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrUnauthorized signals that the link endpoint rejected the api key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownPartition signals an unsupported partition name.
	ErrUnknownPartition = errors.New("unknown partition")
	// ErrNoDownload signals a product without downloadable files.
	ErrNoDownload = errors.New("product has no downloads")
)

// UpstreamStatusError carries the HTTP status of a failed upstream call.
type UpstreamStatusError struct {
	Op         string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: %s: status %d", ErrUpstreamUnavailable.Error(), e.Op, e.StatusCode)
}

func (e *UpstreamStatusError) Unwrap() error { return ErrUpstreamUnavailable }

// NewUpstreamStatus creates an upstream status error.
func NewUpstreamStatus(op string, statusCode int) error {
	return &UpstreamStatusError{Op: op, StatusCode: statusCode}
}
