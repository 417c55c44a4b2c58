package gplcatalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_NoStorage(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no storage provided")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	_, err := createStore(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNew_InvalidCatalogURL(t *testing.T) {
	_, err := New(context.Background(),
		WithFileStore(t.TempDir()),
		WithCatalog("not-a-url", "ck", "cs"),
	)
	if err == nil {
		t.Fatal("expected error for relative catalog url")
	}
}

// wooServer serves one page of products and an empty second page.
func wooServer(t *testing.T, products []map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/products" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode(products)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rawProduct(id int, name, categorySlug string) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        name,
		"description": name + " description",
		"categories":  []map[string]any{{"id": 1, "name": categorySlug, "slug": categorySlug}},
		"meta_data":   []map[string]any{},
		"images":      []map[string]any{},
		"tags":        []map[string]any{},
	}
}

func TestClient_SyncAndQuery_FileStore(t *testing.T) {
	srv := wooServer(t, []map[string]any{
		rawProduct(10, "Foo Bar", "wp-gpl-themes"),
		rawProduct(20, "Baz", "wp-gpl-plugins"),
		rawProduct(30, "Qux", "misc"),
	})
	dir := t.TempDir()
	ctx := context.Background()

	client, err := New(ctx,
		WithFileStore(dir),
		WithCatalog(srv.URL, "ck", "cs"),
		WithPaging(100, 0),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := client.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	st := client.SyncStatus()
	if st.Products != 3 || st.Themes != 1 || st.Plugins != 1 {
		t.Errorf("status counts = %+v", st)
	}
	if st.LastSuccess.IsZero() {
		t.Error("LastSuccess not set")
	}

	themes, err := client.Search(ctx, PartitionThemes, "foo")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(themes) != 1 || themes[0].ID != 10 {
		t.Errorf("themes = %+v", themes)
	}

	plugins, err := client.List(PartitionPlugins)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != 20 {
		t.Errorf("plugins = %+v", plugins)
	}

	p, err := client.Get(30)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Type != "" {
		t.Errorf("unclassified product type = %q", p.Type)
	}

	if _, err := client.Get(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if h := client.Health(ctx); h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}
	client.Close()

	// A new client over the same directory restores the catalog without syncing.
	reopened, err := New(ctx, WithFileStore(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if got := reopened.Records(); len(got) != 3 {
		t.Errorf("restored records = %d, want 3", len(got))
	}
	if err := reopened.Sync(ctx); !errors.Is(err, ErrCatalogNotConfigured) {
		t.Errorf("expected ErrCatalogNotConfigured, got %v", err)
	}
}

func TestClient_BoltStore(t *testing.T) {
	srv := wooServer(t, []map[string]any{rawProduct(5, "Elementor Pro", "wp-gpl-plugins")})
	ctx := context.Background()

	client, err := New(ctx,
		WithBolt(filepath.Join(t.TempDir(), "catalog.db")),
		WithCatalog(srv.URL, "ck", "cs"),
		WithPaging(50, 0),
		WithSearchCache(16),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	got, err := client.Search(ctx, PartitionPlugins, "elementr")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("results = %+v", got)
	}
	if err := client.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestClient_Sync_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	ctx := context.Background()

	client, err := New(ctx,
		WithFileStore(t.TempDir()),
		WithCatalog(srv.URL, "ck", "cs"),
		WithPaging(100, 0),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Sync(ctx); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if h := client.Health(ctx); h.Checks["sync"] != "error" {
		t.Errorf("health checks = %v", h.Checks)
	}
}

func TestClient_Sync_PageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()
	ctx := context.Background()

	client, err := New(ctx,
		WithFileStore(t.TempDir()),
		WithCatalog(srv.URL, "ck", "cs"),
		WithPaging(100, 0),
		WithPageTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	start := time.Now()
	if err := client.Sync(ctx); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sync took %v, page timeout not applied", elapsed)
	}
}

func TestClient_Observability(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctx := context.Background()

	client, err := New(ctx,
		WithFileStore(t.TempDir()),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithPrometheus(reg),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	_, _ = client.Get(1)
	_, _ = client.Search(ctx, PartitionThemes, "x")
	_, _ = client.List(PartitionPlugins)
	_ = client.Sync(ctx)

	ops := client.obs.metrics.operations
	tests := []struct {
		op, partition, outcome string
	}{
		{"get", "all", outcomeNotFound},
		{"search", "themes", outcomeOK},
		{"list", "plugins", outcomeOK},
		{"sync", "", outcomeError},
	}
	for _, tc := range tests {
		if got := testutil.ToFloat64(ops.WithLabelValues(tc.op, tc.partition, tc.outcome)); got != 1 {
			t.Errorf("operations{%s,%s,%s} = %v, want 1", tc.op, tc.partition, tc.outcome, got)
		}
	}
	if got := testutil.ToFloat64(ops.WithLabelValues("get", "all", outcomeError)); got != 0 {
		t.Errorf("missing product counted as error: %v", got)
	}
	if n := testutil.CollectAndCount(client.obs.metrics.searchResults); n != 1 {
		t.Errorf("search result series = %d, want 1", n)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, outcomeOK},
		{fmt.Errorf("get 7: %w", ErrNotFound), outcomeNotFound},
		{fmt.Errorf("sync: %w", ErrSyncInProgress), outcomeInProgress},
		{fmt.Errorf("sync: %w", ErrUpstreamUnavailable), outcomeError},
	}
	for _, tc := range tests {
		if got := outcomeOf(tc.err); got != tc.want {
			t.Errorf("outcomeOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe(opPing, "", time.Now(), nil)
	o.searched(PartitionAll, 3)
}

func TestNewObserver_Reuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected reused collector")
	}
}
