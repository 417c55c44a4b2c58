// Package chi exposes the catalog over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	logpkg "github.com/kailas-cloud/gplcatalog/internal/logger"
	cataloguc "github.com/kailas-cloud/gplcatalog/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/gplcatalog/internal/usecase/health"
	"github.com/kailas-cloud/gplcatalog/internal/usecase/syncer"
)

const (
	internalErrorMessage = "internal server error"
	maxLinkBody          = 1 << 12
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// syncTrigger starts a sync cycle out of schedule.
type syncTrigger interface {
	Trigger() error
}

// Server implements ServerInterface.
type Server struct {
	catalog       *cataloguc.Service
	sync          *syncer.Service
	trigger       syncTrigger
	health        *healthuc.Service
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. trigger may be nil to disable POST /sync.
func NewServer(
	catalog *cataloguc.Service,
	sync *syncer.Service,
	trigger syncTrigger,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog: catalog,
		sync:    sync,
		trigger: trigger,
		health:  health,
		metrics: promhttp.Handler(),
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrNoDownload, http.StatusNotFound),
		sentinelHandler(domain.ErrUnknownPartition, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized),
		sentinelHandler(domain.ErrSyncInProgress, http.StatusConflict),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway),
	}
	return s
}

// ListProducts handles GET /.
func (s *Server) ListProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListAll())
}

// SearchThemes handles GET /themes.
func (s *Server) SearchThemes(w http.ResponseWriter, r *http.Request, params SearchParams) {
	s.search(w, r, product.PartitionThemes, deref(params.Q))
}

// SearchPlugins handles GET /plugins.
func (s *Server) SearchPlugins(w http.ResponseWriter, r *http.Request, params SearchParams) {
	s.search(w, r, product.PartitionPlugins, deref(params.Q))
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params SearchByTypeParams) {
	part, err := product.ParsePartition(deref(params.Type))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.search(w, r, part, deref(params.Q))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, part product.Partition, q string) {
	res, err := s.catalog.Search(r.Context(), part, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	// The all-items store is served in its listing shape.
	if part == product.PartitionAll {
		recs := make([]product.SearchRecord, len(res))
		for i := range res {
			recs[i] = res[i].SearchRecord()
		}
		writeJSON(w, http.StatusOK, recs)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetProduct handles GET /{productID}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request, productID ProductID) {
	p, err := s.catalog.GetByID(productID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateDownloadLink handles POST /link/{productID}.
func (s *Server) CreateDownloadLink(w http.ResponseWriter, r *http.Request, productID ProductID) {
	apiKey, err := linkAPIKey(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	url, err := s.catalog.DownloadLink(r.Context(), productID, apiKey)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{URL: url})
}

// linkAPIKey reads api_key from a JSON or form-encoded body.
func linkAPIKey(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLinkBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", fmt.Errorf("parse form: %w", err)
		}
		return r.PostForm.Get("api_key"), nil
	}

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("decode json: %w", err)
	}
	return req.APIKey, nil
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

// GetSyncStatus handles GET /sync/status.
func (s *Server) GetSyncStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sync.Status())
}

// TriggerSync handles POST /sync.
func (s *Server) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		writeError(w, http.StatusNotImplemented, "manual sync disabled")
		return
	}
	if err := s.trigger.Trigger(); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, SyncAcceptedResponse{Status: "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrNoDownload,
		domain.ErrUnknownPartition,
		domain.ErrUnauthorized,
		domain.ErrSyncInProgress,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return internalErrorMessage
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("not found", zap.Error(err))
	} else {
		log.Warn("domain error", zap.Error(err))
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
