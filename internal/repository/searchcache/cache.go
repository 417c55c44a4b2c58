// Package searchcache memoizes search results per partition snapshot generation.
package searchcache

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// searcher is the consumer interface for the wrapped search index (ISP).
type searcher interface {
	Search(ctx context.Context, products []product.Product, q string) ([]product.Product, error)
}

// Key identifies a cached result. A new generation never hits older entries.
type Key struct {
	Partition  product.Partition
	Generation uint64
	Query      string
}

// CachedSearcher caches search results in a bounded LRU.
type CachedSearcher struct {
	inner      searcher
	cache      *lru.Cache[Key, []product.Product]
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. size <= 0 disables caching.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), may be nil.
func New(
	inner searcher,
	size int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedSearcher, error) {
	c := &CachedSearcher{
		inner:      inner,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	if size > 0 {
		cache, err := lru.New[Key, []product.Product](size)
		if err != nil {
			return nil, fmt.Errorf("create search cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Search returns cached results for (partition, generation, q) or runs the inner search.
func (c *CachedSearcher) Search(
	ctx context.Context,
	part product.Partition,
	generation uint64,
	products []product.Product,
	q string,
) ([]product.Product, error) {
	if c.cache == nil {
		return c.inner.Search(ctx, products, q)
	}

	key := Key{Partition: part, Generation: generation, Query: normalizeQuery(q)}
	if res, ok := c.cache.Get(key); ok {
		c.incCache("hit")
		return clone(res), nil
	}
	c.incCache("miss")

	res, err := c.inner.Search(ctx, products, q)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, clone(res))
	c.logger.Debug("search cached",
		zap.String("partition", part.String()),
		zap.Uint64("generation", generation),
		zap.Int("results", len(res)),
	)
	return res, nil
}

// Len returns the number of cached entries.
func (c *CachedSearcher) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// normalizeQuery folds queries the analyzer treats as equal.
func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func clone(ps []product.Product) []product.Product {
	out := make([]product.Product, len(ps))
	copy(out, ps)
	return out
}
