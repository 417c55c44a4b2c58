package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockStoragePinger struct {
	err error
}

func (m *mockStoragePinger) Ping(_ context.Context) error { return m.err }

type mockSyncChecker struct {
	err error
}

func (m *mockSyncChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStoragePinger{}, &mockSyncChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[CheckStorage] != CheckOK {
		t.Errorf("expected storage %q, got %q", CheckOK, r.Checks[CheckStorage])
	}
	if r.Checks[CheckSync] != CheckOK {
		t.Errorf("expected sync %q, got %q", CheckOK, r.Checks[CheckSync])
	}
}

func TestCheck_StorageError(t *testing.T) {
	svc := New(&mockStoragePinger{err: errors.New("lock lost")}, &mockSyncChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckStorage] != CheckError {
		t.Errorf("expected storage %q, got %q", CheckError, r.Checks[CheckStorage])
	}
	if r.Checks[CheckSync] != CheckOK {
		t.Errorf("expected sync %q, got %q", CheckOK, r.Checks[CheckSync])
	}
}

func TestCheck_SyncError(t *testing.T) {
	svc := New(&mockStoragePinger{}, &mockSyncChecker{err: errors.New("no successful sync")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckSync] != CheckError {
		t.Errorf("expected sync %q, got %q", CheckError, r.Checks[CheckSync])
	}
}

func TestCheck_AllFail(t *testing.T) {
	svc := New(
		&mockStoragePinger{err: errors.New("redis down")},
		&mockSyncChecker{err: errors.New("upstream down")},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoSyncChecker(t *testing.T) {
	svc := New(&mockStoragePinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckSync]; ok {
		t.Error("sync check should be absent when checker is nil")
	}
}

func TestCheck_NoSyncChecker_StorageError(t *testing.T) {
	svc := New(&mockStoragePinger{err: errors.New("fail")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}
