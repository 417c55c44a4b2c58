package partition

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// Store is the handle for a single partition of a Set.
type Store struct {
	set  *Set
	name product.Partition
}

// Name returns the partition this store serves.
func (s *Store) Name() product.Partition { return s.name }

// Snapshot returns the current snapshot of the partition.
func (s *Store) Snapshot() *Snapshot {
	return s.set.View().Partition(s.name)
}

// Get returns the product or domain.ErrNotFound.
func (s *Store) Get(id int64) (product.Product, error) {
	p, ok := s.Snapshot().Get(id)
	if !ok {
		return product.Product{}, fmt.Errorf("%s/%d: %w", s.name, id, domain.ErrNotFound)
	}
	return p, nil
}

// All returns the current mapping as an ordered sequence.
func (s *Store) All() []product.Product {
	return s.Snapshot().Products()
}

// Put inserts or overwrites one product.
func (s *Store) Put(ctx context.Context, p product.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode product %d: %w", p.ID, err)
	}

	s.set.mu.Lock()
	defer s.set.mu.Unlock()

	if err := s.set.backend.PutEntry(ctx, s.name.String(), strconv.FormatInt(p.ID, 10), data); err != nil {
		return fmt.Errorf("persist product %d in %s: %w", p.ID, s.name, err)
	}

	parts := s.set.currentParts()
	m := s.set.View().Partition(s.name).Map()
	m[p.ID] = p
	parts[s.name] = newSnapshot(m)
	s.set.publish(parts)
	return nil
}

// Replace atomically swaps the partition's contents.
func (s *Store) Replace(ctx context.Context, batch map[int64]product.Product) error {
	return s.set.ReplaceAll(ctx, map[product.Partition]map[int64]product.Product{s.name: batch})
}

// Generation identifies the view the partition currently belongs to.
func (s *Store) Generation() uint64 {
	return s.set.View().Generation()
}
