// Package syncer drives full-catalog refresh cycles from the upstream catalog
// into the partition stores.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
)

// Defaults for Config.
const (
	DefaultPerPage     = 100
	DefaultPageDelay   = 3 * time.Second
	DefaultPageTimeout = 30 * time.Second
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Config controls upstream paging.
type Config struct {
	PerPage     int
	PageDelay   time.Duration
	PageTimeout time.Duration
}

// Service runs sync cycles. At most one cycle runs at a time.
type Service struct {
	client     CatalogClient
	store      PartitionWriter
	classifier product.Classifier
	cfg        Config
	rec        Recorder
	logger     *zap.Logger

	run sync.Mutex // held for the duration of a cycle

	mu     sync.RWMutex
	status Status
}

// New creates a Service. rec may be nil.
func New(
	client CatalogClient,
	store PartitionWriter,
	classifier product.Classifier,
	cfg Config,
	rec Recorder,
	logger *zap.Logger,
) *Service {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		client:     client,
		store:      store,
		classifier: classifier,
		cfg:        cfg,
		rec:        rec,
		logger:     logger,
		status:     Status{State: StateIdle},
	}
}

// Run executes one full cycle and blocks until it finishes.
// Returns domain.ErrSyncInProgress if another cycle is running.
func (s *Service) Run(ctx context.Context) error {
	if !s.run.TryLock() {
		s.logger.Info("sync skipped, cycle already in progress")
		return domain.ErrSyncInProgress
	}
	defer s.run.Unlock()

	return s.runCycle(ctx)
}

// Status returns a snapshot of the orchestrator state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.clone()
}

// Busy reports whether a cycle is in flight.
func (s *Service) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.State != StateIdle
}

// HealthCheck fails when cycles have run, the last one failed and none ever succeeded.
func (s *Service) HealthCheck(_ context.Context) error {
	st := s.Status()
	if st.LastSuccess == nil && st.LastError != "" {
		return fmt.Errorf("no successful sync: %s", st.LastError)
	}
	return nil
}

func (s *Service) runCycle(ctx context.Context) error {
	start := time.Now()
	s.update(func(st *Status) {
		st.State = StateFetching
		st.Page = 0
		st.LastStarted = &start
	})
	s.logger.Info("sync started")

	counts, err := s.cycle(ctx)

	finished := time.Now()
	dur := finished.Sub(start)
	s.update(func(st *Status) {
		st.State = StateIdle
		st.Page = 0
		st.Cycles++
		st.LastFinished = &finished
		if err != nil {
			st.LastError = err.Error()
			return
		}
		st.LastError = ""
		st.LastSuccess = &finished
		st.LastCounts = &counts
	})

	if err != nil {
		s.rec.CycleFinished(statusFailed, dur)
		s.logger.Error("sync aborted, partitions unchanged",
			zap.Duration("duration", dur),
			zap.Error(err),
		)
		return err
	}

	s.rec.CycleFinished(statusOK, dur)
	s.rec.PartitionSize(product.PartitionAll.String(), counts.All)
	s.rec.PartitionSize(product.PartitionThemes.String(), counts.Themes)
	s.rec.PartitionSize(product.PartitionPlugins.String(), counts.Plugins)
	s.logger.Info("sync finished",
		zap.Duration("duration", dur),
		zap.Int("pages", counts.Pages),
		zap.Int("all", counts.All),
		zap.Int("themes", counts.Themes),
		zap.Int("plugins", counts.Plugins),
		zap.Int("rejected", counts.Rejected),
	)
	return nil
}

// cycle builds a fresh batch from every upstream page and commits it only
// after the terminating empty page.
func (s *Service) cycle(ctx context.Context) (Counts, error) {
	var counts Counts
	all := make(map[int64]product.Product)
	themes := make(map[int64]product.Product)
	plugins := make(map[int64]product.Product)

	limit := rate.Inf
	if s.cfg.PageDelay > 0 {
		limit = rate.Every(s.cfg.PageDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for page := 1; ; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return Counts{}, fmt.Errorf("wait for page %d: %w", page, err)
		}
		s.update(func(st *Status) { st.Page = page })

		records, err := s.fetch(ctx, page)
		if err != nil {
			if errors.Is(err, domain.ErrUpstreamUnavailable) {
				return Counts{}, fmt.Errorf("page %d: %w", page, err)
			}
			return Counts{}, fmt.Errorf("page %d: %w: %w", page, domain.ErrUpstreamUnavailable, err)
		}
		s.rec.PageFetched()
		counts.Pages = page
		if len(records) == 0 {
			break
		}

		for i := range records {
			p, err := product.Normalize(&records[i])
			if err != nil {
				counts.Rejected++
				s.rec.RecordRejected()
				s.logger.Warn("record rejected",
					zap.Int("page", page),
					zap.Int64("product_id", records[i].ID),
					zap.Error(err),
				)
				continue
			}

			cl := s.classifier.Classify(&p)
			delete(themes, p.ID)
			delete(plugins, p.ID)
			all[p.ID] = p
			if cl.Theme {
				themes[p.ID] = p
			}
			if cl.Plugin {
				plugins[p.ID] = p
			}
		}
	}

	s.update(func(st *Status) { st.State = StateFinalizing })

	err := s.store.ReplaceAll(ctx, map[product.Partition]map[int64]product.Product{
		product.PartitionAll:     all,
		product.PartitionThemes:  themes,
		product.PartitionPlugins: plugins,
	})
	if err != nil {
		return Counts{}, fmt.Errorf("replace partitions: %w", err)
	}

	counts.All = len(all)
	counts.Themes = len(themes)
	counts.Plugins = len(plugins)
	return counts, nil
}

func (s *Service) fetch(ctx context.Context, page int) ([]product.RawProduct, error) {
	if s.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PageTimeout)
		defer cancel()
	}
	records, err := s.client.ListProducts(ctx, page, s.cfg.PerPage)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return records, nil
}

func (s *Service) update(fn func(*Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}
