package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
)

type fakeRunner struct {
	runs atomic.Int32
	busy atomic.Bool
	ran  chan struct{}
	err  error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan struct{}, 16)}
}

func (f *fakeRunner) Run(_ context.Context) error {
	f.runs.Add(1)
	f.ran <- struct{}{}
	return f.err
}

func (f *fakeRunner) Busy() bool { return f.busy.Load() }

func waitRun(t *testing.T, f *fakeRunner) {
	t.Helper()
	select {
	case <-f.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for run")
	}
}

func TestScheduler_RunsOnStartup(t *testing.T) {
	f := newFakeRunner()
	s := NewScheduler(f, time.Hour, true, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	waitRun(t, f)
	cancel()
	<-done
	if n := f.runs.Load(); n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}
}

func TestScheduler_NoStartupRun(t *testing.T) {
	f := newFakeRunner()
	s := NewScheduler(f, time.Hour, false, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
	if n := f.runs.Load(); n != 0 {
		t.Errorf("runs = %d, want 0", n)
	}
}

func TestScheduler_Ticks(t *testing.T) {
	f := newFakeRunner()
	f.err = errors.New("upstream down")
	s := NewScheduler(f, 10*time.Millisecond, false, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitRun(t, f)
	waitRun(t, f)
}

func TestScheduler_Trigger(t *testing.T) {
	f := newFakeRunner()
	s := NewScheduler(f, time.Hour, false, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	waitRun(t, f)
}

func TestScheduler_TriggerWhileBusy(t *testing.T) {
	f := newFakeRunner()
	f.busy.Store(true)
	s := NewScheduler(f, time.Hour, false, zap.NewNop())

	if err := s.Trigger(); !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestScheduler_TriggerAlreadyQueued(t *testing.T) {
	f := newFakeRunner()
	s := NewScheduler(f, time.Hour, false, zap.NewNop())

	if err := s.Trigger(); err != nil {
		t.Fatalf("first Trigger: %v", err)
	}
	if err := s.Trigger(); !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress for queued trigger, got %v", err)
	}
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(newFakeRunner(), 0, false, zap.NewNop())
	if s.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultInterval)
	}
}
