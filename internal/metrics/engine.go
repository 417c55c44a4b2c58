package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcome label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Engine holds the catalog sync and search metrics. A nil *Engine records nothing.
type Engine struct {
	SyncCycles        *prometheus.CounterVec
	SyncDuration      prometheus.Histogram
	SyncPages         prometheus.Counter
	SyncRejected      prometheus.Counter
	PartitionProducts *prometheus.GaugeVec
	SearchCache       *prometheus.CounterVec
}

// NewEngine creates the engine metrics and registers them on reg.
// Collectors already registered on reg are reused.
func NewEngine(reg prometheus.Registerer) (*Engine, error) {
	e := &Engine{
		SyncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Name:      "sync_cycles_total",
			Help:      "Total sync cycles by outcome",
		}, []string{"status"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gplcatalog",
			Name:      "sync_cycle_duration_seconds",
			Help:      "Sync cycle duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		SyncPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Name:      "sync_pages_total",
			Help:      "Total upstream catalog pages fetched",
		}),
		SyncRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Name:      "sync_records_rejected_total",
			Help:      "Total upstream records rejected by normalization",
		}),
		PartitionProducts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gplcatalog",
			Name:      "partition_products",
			Help:      "Number of products per partition after the last successful sync",
		}, []string{"partition"}),
		SearchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Name:      "search_cache_total",
			Help:      "Search cache hits and misses",
		}, []string{"result"}), // "hit" / "miss"
	}

	if reg == nil {
		return e, nil
	}
	if err := registerOrReuse(reg, &e.SyncCycles); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.SyncDuration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.SyncPages); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.SyncRejected); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.PartitionProducts); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.SearchCache); err != nil {
		return nil, err
	}
	return e, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}

// CycleFinished records a finished sync cycle.
func (e *Engine) CycleFinished(status string, d time.Duration) {
	if e == nil {
		return
	}
	e.SyncCycles.WithLabelValues(status).Inc()
	e.SyncDuration.Observe(d.Seconds())
}

// PageFetched counts one fetched upstream page.
func (e *Engine) PageFetched() {
	if e == nil {
		return
	}
	e.SyncPages.Inc()
}

// RecordRejected counts one record skipped by normalization.
func (e *Engine) RecordRejected() {
	if e == nil {
		return
	}
	e.SyncRejected.Inc()
}

// PartitionSize sets the product count of a partition.
func (e *Engine) PartitionSize(partition string, n int) {
	if e == nil {
		return
	}
	e.PartitionProducts.WithLabelValues(partition).Set(float64(n))
}

// SearchCacheTotal returns the hit/miss counter, or nil for a nil Engine.
func (e *Engine) SearchCacheTotal() *prometheus.CounterVec {
	if e == nil {
		return nil
	}
	return e.SearchCache
}
