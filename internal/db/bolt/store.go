// Package bolt stores partitions as buckets of a single bbolt file.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kailas-cloud/gplcatalog/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds the database file location.
type Config struct {
	Path string
	// OpenTimeout bounds the wait for the bbolt file lock.
	OpenTimeout time.Duration
}

// Store implements db.Store on top of bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the bbolt file.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Second
	}
	path := filepath.Clean(cfg.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: bdb}, nil
}

// Ping runs an empty read transaction.
func (s *Store) Ping(_ context.Context) error {
	if err := s.db.View(func(*bolt.Tx) error { return nil }); err != nil {
		return &db.Error{Op: db.OpPing, Err: translate(err)}
	}
	return nil
}

// WaitForReady returns once the file answers a read transaction.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.PollReady(ctx, s, timeout)
}

// Close closes the bbolt file.
func (s *Store) Close() {
	_ = s.db.Close()
}

// LoadPartition copies every entry of the partition bucket.
func (s *Store) LoadPartition(_ context.Context, name string) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			// bbolt memory is only valid inside the transaction.
			entries[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpLoad, Err: translate(err)}
	}
	return entries, nil
}

// ReplacePartition drops and refills the bucket in one transaction.
func (s *Store) ReplacePartition(_ context.Context, name string, entries map[string][]byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(name)
		if tx.Bucket(key) != nil {
			if err := tx.DeleteBucket(key); err != nil {
				return fmt.Errorf("drop bucket %s: %w", name, err)
			}
		}
		b, err := tx.CreateBucket(key)
		if err != nil {
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
		for k, v := range entries {
			if err := b.Put([]byte(k), v); err != nil {
				return fmt.Errorf("put %s/%s: %w", name, k, err)
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpReplace, Err: translate(err)}
	}
	return nil
}

// PutEntry inserts or overwrites one entry.
func (s *Store) PutEntry(_ context.Context, name, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return fmt.Errorf("bucket %s: %w", name, err)
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpPut, Err: translate(err)}
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return db.ErrStoreClosed
	}
	return err
}
