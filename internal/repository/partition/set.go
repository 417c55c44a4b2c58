// Package partition keeps the all-items, themes and plugins stores as in-memory
// snapshots over a durable db.SnapshotStore. Writers persist first and swap the
// in-memory view only on success; readers never block and never see a partial swap.
package partition

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gplcatalog/internal/db"
	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// Set groups the three partition stores behind one atomically swapped view.
type Set struct {
	backend db.SnapshotStore
	mu      sync.Mutex // serializes writers
	view    atomic.Pointer[View]
}

// NewSet creates an empty Set. Call Load to hydrate it from the backend.
func NewSet(backend db.SnapshotStore) *Set {
	s := &Set{backend: backend}
	s.view.Store(&View{parts: map[product.Partition]*Snapshot{}})
	return s
}

// View returns the current consistent view of all partitions.
func (s *Set) View() *View {
	return s.view.Load()
}

// Store returns the handle for one partition.
func (s *Set) Store(p product.Partition) (*Store, error) {
	switch p {
	case product.PartitionAll, product.PartitionThemes, product.PartitionPlugins:
		return &Store{set: s, name: p}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPartition, p)
	}
}

// Load reads every partition from the backend and publishes them as one view.
func (s *Set) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make(map[product.Partition]*Snapshot, len(product.Partitions))
	for _, p := range product.Partitions {
		entries, err := s.backend.LoadPartition(ctx, p.String())
		if err != nil {
			return fmt.Errorf("load partition %s: %w", p, err)
		}
		m, err := decode(entries)
		if err != nil {
			return fmt.Errorf("decode partition %s: %w", p, err)
		}
		parts[p] = newSnapshot(m)
	}
	s.publish(parts)
	return nil
}

// ReplaceAll persists the given partitions and then swaps them in together.
// Typed partitions are written concurrently; the all-items partition is written
// only after they all succeed, so a failed cycle never leaves a durable db.json
// that is newer than its themes and plugins files. A failure can still leave
// one typed file newer than the other. Partitions absent from batches keep
// their contents. On any persistence error the in-memory view is left unchanged.
func (s *Set) ReplaceAll(ctx context.Context, batches map[product.Partition]map[int64]product.Product) error {
	encoded := make(map[product.Partition]map[string][]byte, len(batches))
	for p, batch := range batches {
		if _, err := s.Store(p); err != nil {
			return err
		}
		entries, err := encode(batch)
		if err != nil {
			return fmt.Errorf("encode partition %s: %w", p, err)
		}
		encoded[p] = entries
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for p, entries := range encoded {
		if p == product.PartitionAll {
			continue
		}
		g.Go(func() error {
			return s.persist(gctx, p, entries)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if entries, ok := encoded[product.PartitionAll]; ok {
		if err := s.persist(ctx, product.PartitionAll, entries); err != nil {
			return err
		}
	}

	parts := s.currentParts()
	for p, batch := range batches {
		parts[p] = newSnapshot(batch)
	}
	s.publish(parts)
	return nil
}

func (s *Set) persist(ctx context.Context, p product.Partition, entries map[string][]byte) error {
	if err := s.backend.ReplacePartition(ctx, p.String(), entries); err != nil {
		return fmt.Errorf("persist partition %s: %w", p, err)
	}
	return nil
}

// currentParts copies the partition map of the current view. Callers hold s.mu.
func (s *Set) currentParts() map[product.Partition]*Snapshot {
	cur := s.view.Load()
	parts := make(map[product.Partition]*Snapshot, len(product.Partitions))
	for p, snap := range cur.parts {
		parts[p] = snap
	}
	return parts
}

// publish swaps in a new view. Callers hold s.mu.
func (s *Set) publish(parts map[product.Partition]*Snapshot) {
	next := &View{generation: s.view.Load().generation + 1, parts: parts}
	s.view.Store(next)
}

func encode(batch map[int64]product.Product) (map[string][]byte, error) {
	entries := make(map[string][]byte, len(batch))
	for id, p := range batch {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", id, err)
		}
		entries[strconv.FormatInt(id, 10)] = data
	}
	return entries, nil
}

func decode(entries map[string][]byte) (map[int64]product.Product, error) {
	m := make(map[int64]product.Product, len(entries))
	for key, data := range entries {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		var p product.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("product %s: %w", key, err)
		}
		if p.ID == 0 {
			p.ID = id
		}
		m[id] = p
	}
	return m, nil
}
