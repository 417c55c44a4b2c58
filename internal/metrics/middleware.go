package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// Catalog read kinds.
const (
	ReadList   = "list"
	ReadSearch = "search"
	ReadGet    = "get"
	ReadLink   = "link"
)

// partitionInvalid labels /search requests whose type parameter names no partition.
const partitionInvalid = "invalid"

// HTTP holds the request metrics of the catalog API.
type HTTP struct {
	Duration     *prometheus.HistogramVec
	Requests     *prometheus.CounterVec
	CatalogReads *prometheus.CounterVec
}

// NewHTTP creates the HTTP metrics and registers them on reg.
// Collectors already registered on reg are reused.
func NewHTTP(reg prometheus.Registerer) (*HTTP, error) {
	h := &HTTP{
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gplcatalog",
			Name:      "http_request_duration_seconds",
			Help:      "Catalog API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Name:      "http_requests_total",
			Help:      "Catalog API requests by route and status",
		}, []string{"method", "route", "status"}),
		CatalogReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gplcatalog",
			Name:      "catalog_reads_total",
			Help:      "Catalog reads by partition and kind (list, search, get, link)",
		}, []string{"partition", "kind"}),
	}
	if reg == nil {
		return h, nil
	}
	if err := registerOrReuse(reg, &h.Duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &h.Requests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &h.CatalogReads); err != nil {
		return nil, err
	}
	return h, nil
}

// Middleware records duration and count per chi route pattern and counts
// catalog reads by partition. Health, metrics and sync routes are not reads.
func (h *HTTP) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			status := strconv.Itoa(ww.status)
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			h.Duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
			h.Requests.WithLabelValues(r.Method, route, status).Inc()

			if partition, kind, ok := catalogRead(route, r); ok {
				h.CatalogReads.WithLabelValues(partition, kind).Inc()
			}
		})
	}
}

// catalogRead maps a route pattern to the partition and kind of catalog read it serves.
func catalogRead(route string, r *http.Request) (partition, kind string, ok bool) {
	switch route {
	case "/":
		return product.PartitionAll.String(), ReadList, true
	case "/themes":
		return product.PartitionThemes.String(), ReadSearch, true
	case "/plugins":
		return product.PartitionPlugins.String(), ReadSearch, true
	case "/search":
		p, err := product.ParsePartition(r.URL.Query().Get("type"))
		if err != nil {
			return partitionInvalid, ReadSearch, true
		}
		return p.String(), ReadSearch, true
	case "/{productID}":
		return product.PartitionAll.String(), ReadGet, true
	case "/link/{productID}":
		return product.PartitionAll.String(), ReadLink, true
	}
	return "", "", false
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
