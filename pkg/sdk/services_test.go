package gplcatalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/gplcatalog/internal/domain"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	healthuc "github.com/kailas-cloud/gplcatalog/internal/usecase/health"
	"github.com/kailas-cloud/gplcatalog/internal/usecase/syncer"
)

func TestClient_Search(t *testing.T) {
	mock := &mockCatalogUC{
		searchFn: func(_ context.Context, p product.Partition, q string) ([]product.Product, error) {
			if p != product.PartitionThemes {
				t.Errorf("partition = %q, want themes", p)
			}
			if q != "foo" {
				t.Errorf("q = %q, want foo", q)
			}
			return []product.Product{{ID: 10, Name: "Foo Bar"}}, nil
		},
	}

	c := &Client{catalogSvc: mock}
	out, err := c.Search(context.Background(), PartitionThemes, "foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].ID != 10 {
		t.Errorf("results = %+v", out)
	}
}

func TestClient_Search_UnknownPartition(t *testing.T) {
	mock := &mockCatalogUC{
		searchFn: func(context.Context, product.Partition, string) ([]product.Product, error) {
			return nil, domain.ErrUnknownPartition
		},
	}

	c := &Client{catalogSvc: mock}
	_, err := c.Search(context.Background(), "widgets", "x")
	if !errors.Is(err, ErrUnknownPartition) {
		t.Fatalf("expected ErrUnknownPartition, got %v", err)
	}
}

func TestClient_Get_NotFound(t *testing.T) {
	mock := &mockCatalogUC{
		getFn: func(int64) (product.Product, error) {
			return product.Product{}, domain.ErrNotFound
		},
	}

	c := &Client{catalogSvc: mock}
	_, err := c.Get(99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_List(t *testing.T) {
	mock := &mockCatalogUC{
		listFn: func(p product.Partition) ([]product.Product, error) {
			return []product.Product{{ID: 1}, {ID: 2}}, nil
		},
	}

	c := &Client{catalogSvc: mock}
	out, err := c.List(PartitionPlugins)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}
}

func TestClient_Records(t *testing.T) {
	mock := &mockCatalogUC{
		listAllFn: func() []product.SearchRecord {
			return []product.SearchRecord{{ID: 7, Name: "Seven"}}
		},
	}

	c := &Client{catalogSvc: mock}
	if got := c.Records(); len(got) != 1 || got[0].ID != 7 {
		t.Errorf("Records() = %+v", got)
	}
}

func TestClient_Sync_NotConfigured(t *testing.T) {
	c := &Client{}
	if err := c.Sync(context.Background()); !errors.Is(err, ErrCatalogNotConfigured) {
		t.Fatalf("expected ErrCatalogNotConfigured, got %v", err)
	}
	if st := c.SyncStatus(); st.State != "idle" {
		t.Errorf("State = %q, want idle", st.State)
	}
}

func TestClient_Sync_InProgress(t *testing.T) {
	mock := &mockSyncUC{
		runFn: func(context.Context) error { return domain.ErrSyncInProgress },
	}

	c := &Client{syncSvc: mock}
	if err := c.Sync(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestClient_SyncStatus(t *testing.T) {
	done := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := &mockSyncUC{
		statusFn: func() syncer.Status {
			return syncer.Status{
				State:       syncer.StateIdle,
				Cycles:      3,
				LastSuccess: &done,
				LastCounts:  &syncer.Counts{All: 5, Themes: 2, Plugins: 3, Rejected: 1},
			}
		},
	}

	c := &Client{syncSvc: mock}
	st := c.SyncStatus()
	if st.Cycles != 3 || !st.LastSuccess.Equal(done) {
		t.Errorf("status = %+v", st)
	}
	if st.Products != 5 || st.Themes != 2 || st.Plugins != 3 || st.Rejected != 1 {
		t.Errorf("counts = %+v", st)
	}
}

func TestClient_Health(t *testing.T) {
	mock := &mockHealthUC{
		checkFn: func(context.Context) healthuc.Report {
			return healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{
					healthuc.CheckStorage: healthuc.CheckOK,
					healthuc.CheckSync:    healthuc.CheckError,
				},
			}
		},
	}

	c := &Client{healthSvc: mock}
	h := c.Health(context.Background())
	if h.Status != string(healthuc.Degraded) {
		t.Errorf("Status = %q", h.Status)
	}
	if h.Checks["sync"] != string(healthuc.CheckError) {
		t.Errorf("Checks = %v", h.Checks)
	}
}
