package syncer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
)

// DefaultInterval is the period between scheduled cycles.
const DefaultInterval = 24 * time.Hour

type runner interface {
	Run(ctx context.Context) error
	Busy() bool
}

// Scheduler triggers cycles at startup, on a fixed interval and on demand.
type Scheduler struct {
	svc          runner
	interval     time.Duration
	runOnStartup bool
	trigger      chan struct{}
	logger       *zap.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(svc runner, interval time.Duration, runOnStartup bool, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		svc:          svc,
		interval:     interval,
		runOnStartup: runOnStartup,
		trigger:      make(chan struct{}, 1),
		logger:       logger,
	}
}

// Run blocks until ctx is done, running a cycle on every tick or trigger.
// A tick that fires while a cycle is in flight is skipped.
func (s *Scheduler) Run(ctx context.Context) {
	if s.runOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

// Trigger requests an immediate cycle. It returns domain.ErrSyncInProgress
// when a cycle is running or already requested.
func (s *Scheduler) Trigger() error {
	if s.svc.Busy() {
		return domain.ErrSyncInProgress
	}
	select {
	case s.trigger <- struct{}{}:
		return nil
	default:
		return domain.ErrSyncInProgress
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	err := s.svc.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSyncInProgress):
		s.logger.Info("scheduled sync skipped", zap.Error(err))
	case ctx.Err() != nil:
		s.logger.Info("sync interrupted by shutdown", zap.Error(err))
	default:
		s.logger.Warn("scheduled sync failed", zap.Error(err))
	}
}
