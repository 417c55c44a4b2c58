// Package file stores partitions as flat JSON files, one object per partition,
// keyed by product identifier. Writes replace the file atomically.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio"

	"github.com/kailas-cloud/gplcatalog/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const lockFile = ".gplcatalog.lock"

// Config holds the data directory location.
type Config struct {
	Dir string
}

// Store implements db.Store on top of JSON files in a directory.
type Store struct {
	dir    string
	lock   *flock.Flock
	mu     sync.Mutex
	closed bool
}

// NewStore opens dir, creating it if needed, and takes an exclusive process lock on it.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	dir := filepath.Clean(cfg.Dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data dir %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, db.ErrLocked)
	}

	return &Store{dir: dir, lock: lock}, nil
}

// FileName returns the file backing a partition. The all-items partition keeps the
// legacy db.json name.
func FileName(partition string) string {
	if partition == "all" {
		return "db.json"
	}
	return partition + ".json"
}

// Ping checks the data directory is still reachable.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: db.ErrStoreClosed}
	}
	if _, err := os.Stat(s.dir); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady returns once the directory is reachable.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.PollReady(ctx, s, timeout)
}

// Close releases the directory lock.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.lock.Unlock()
}

// LoadPartition reads a partition file. A missing file is an empty partition.
func (s *Store) LoadPartition(_ context.Context, name string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpLoad, Err: db.ErrStoreClosed}
	}
	entries, err := s.read(name)
	if err != nil {
		return nil, &db.Error{Op: db.OpLoad, Err: err}
	}
	return entries, nil
}

// ReplacePartition rewrites the partition file atomically.
func (s *Store) ReplacePartition(_ context.Context, name string, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpReplace, Err: db.ErrStoreClosed}
	}
	if err := s.write(name, entries); err != nil {
		return &db.Error{Op: db.OpReplace, Err: err}
	}
	return nil
}

// PutEntry rewrites the partition file with one entry inserted or overwritten.
func (s *Store) PutEntry(_ context.Context, name, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpPut, Err: db.ErrStoreClosed}
	}
	entries, err := s.read(name)
	if err != nil {
		return &db.Error{Op: db.OpPut, Err: err}
	}
	entries[key] = value
	if err := s.write(name, entries); err != nil {
		return &db.Error{Op: db.OpPut, Err: err}
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, FileName(name))
}

func (s *Store) read(name string) (map[string][]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path(name), err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string][]byte{}, nil
	}
	if data[0] == '[' {
		return decodeLegacyList(data)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path(name), err)
	}
	entries := make(map[string][]byte, len(raw))
	for k, v := range raw {
		entries[k] = v
	}
	return entries, nil
}

func (s *Store) write(name string, entries map[string][]byte) error {
	raw := make(map[string]json.RawMessage, len(entries))
	for k, v := range entries {
		raw[k] = v
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := renameio.WriteFile(s.path(name), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path(name), err)
	}
	return nil
}

// decodeLegacyList reads the array layout of older db.json snapshots, where the
// all-items store was written as a list of listing records carrying a productID.
// A listing record keeps its description under "category"; it is moved to
// "description" so the entry decodes as a product.
func decodeLegacyList(data []byte) (map[string][]byte, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse legacy list: %w", err)
	}
	entries := make(map[string][]byte, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		var id int64
		if err := json.Unmarshal(fields["productID"], &id); err != nil || id <= 0 {
			continue
		}
		if category, ok := fields["category"]; ok {
			if _, has := fields["description"]; !has {
				fields["description"] = category
			}
			delete(fields, "category")
			rewritten, err := json.Marshal(fields)
			if err != nil {
				return nil, fmt.Errorf("rewrite legacy record %d: %w", id, err)
			}
			item = rewritten
		}
		entries[strconv.FormatInt(id, 10)] = item
	}
	return entries, nil
}
