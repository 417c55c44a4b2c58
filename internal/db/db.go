package db

import (
	"context"
	"time"
)

// Store is the persistence facade used by the partition repository.
type Store interface {
	Pinger
	SnapshotStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SnapshotStore persists named key-value partitions.
// Values are opaque JSON documents; keys are product identifiers.
type SnapshotStore interface {
	// LoadPartition returns every entry of a partition. A missing partition is empty, not an error.
	LoadPartition(ctx context.Context, name string) (map[string][]byte, error)
	// ReplacePartition swaps the full contents of a partition. Readers of the backend
	// observe either the previous or the new contents.
	ReplacePartition(ctx context.Context, name string, entries map[string][]byte) error
	// PutEntry inserts or overwrites one entry.
	PutEntry(ctx context.Context, name, key string, value []byte) error
}
