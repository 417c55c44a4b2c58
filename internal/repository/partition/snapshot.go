package partition

import (
	"sort"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// Snapshot is an immutable view of one partition, ordered by product identifier.
type Snapshot struct {
	products []product.Product
	byID     map[int64]int
}

func newSnapshot(m map[int64]product.Product) *Snapshot {
	products := make([]product.Product, 0, len(m))
	for _, p := range m {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	byID := make(map[int64]int, len(products))
	for i := range products {
		byID[products[i].ID] = i
	}
	return &Snapshot{products: products, byID: byID}
}

// Len returns the number of products.
func (s *Snapshot) Len() int { return len(s.products) }

// Products returns the ordered products. The slice is shared and must not be modified.
func (s *Snapshot) Products() []product.Product { return s.products }

// Get looks up a product by identifier.
func (s *Snapshot) Get(id int64) (product.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return product.Product{}, false
	}
	return s.products[i], true
}

// Map returns a copy of the snapshot as an identifier mapping.
func (s *Snapshot) Map() map[int64]product.Product {
	m := make(map[int64]product.Product, len(s.products))
	for _, p := range s.products {
		m[p.ID] = p
	}
	return m
}

// SearchRecords projects the snapshot into listing records, in snapshot order.
func (s *Snapshot) SearchRecords() []product.SearchRecord {
	out := make([]product.SearchRecord, len(s.products))
	for i := range s.products {
		out[i] = s.products[i].SearchRecord()
	}
	return out
}

// View is a consistent set of partition snapshots. Every swap yields a new generation.
type View struct {
	generation uint64
	parts      map[product.Partition]*Snapshot
}

// Generation identifies the view; it increases on every replace or put.
func (v *View) Generation() uint64 { return v.generation }

// Partition returns the snapshot of p. Unknown partitions are empty.
func (v *View) Partition(p product.Partition) *Snapshot {
	if s, ok := v.parts[p]; ok {
		return s
	}
	return emptySnapshot
}

var emptySnapshot = newSnapshot(nil)
