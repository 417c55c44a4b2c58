package gplcatalog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// operation names an SDK call in logs and metric labels.
type operation string

const (
	opPing   operation = "ping"
	opSync   operation = "sync"
	opList   operation = "list"
	opSearch operation = "search"
	opGet    operation = "get"
)

// Outcome label values. Lookups of unknown products and overlapping sync
// triggers are expected results, not failures.
const (
	outcomeOK         = "ok"
	outcomeNotFound   = "not_found"
	outcomeInProgress = "in_progress"
	outcomeError      = "error"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	searchResults *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Catalog calls by operation, partition and outcome.",
		}, []string{"operation", "partition", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gplcatalog",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Catalog call duration in seconds. Sync covers a whole paged cycle.",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120, 600},
		}, []string{"operation"}),
		searchResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gplcatalog",
			Subsystem: "sdk",
			Name:      "search_results",
			Help:      "Number of products returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 20},
		}, []string{"partition"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searchResults); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("gplcatalog: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("gplcatalog: register metric: %w", err)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrSyncInProgress):
		return outcomeInProgress
	default:
		return outcomeError
	}
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// observe records one finished call. p is empty for calls not bound to a partition.
func (o *observer) observe(op operation, p Partition, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	outcome := outcomeOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(string(op), string(p), outcome).Inc()
		o.metrics.duration.WithLabelValues(string(op)).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	attrs := []any{"op", string(op), "duration", dur}
	if p != "" {
		attrs = append(attrs, "partition", string(p))
	}
	switch outcome {
	case outcomeOK:
		o.logger.Debug("operation completed", attrs...)
	case outcomeError:
		o.logger.Warn("operation failed", append(attrs, "error", err)...)
	default:
		o.logger.Debug("operation completed", append(attrs, "outcome", outcome)...)
	}
}

// searched records the result size of a successful search.
func (o *observer) searched(p Partition, n int) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.searchResults.WithLabelValues(string(p)).Observe(float64(n))
}
