package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/gplcatalog/internal/db"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(Config{Dir: dir})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s, dir
}

func TestNewStore_RequiresDir(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestNewStore_SecondOpenLocked(t *testing.T) {
	_, dir := newTestStore(t)

	_, err := NewStore(Config{Dir: dir})
	if !errors.Is(err, db.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestLoadPartition_MissingIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	entries, err := s.LoadPartition(context.Background(), "themes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestReplacePartition_RoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplacePartition(ctx, "themes", map[string][]byte{
		"1": []byte(`{"productID":1,"name":"A"}`),
		"2": []byte(`{"productID":2,"name":"B"}`),
	}); err != nil {
		t.Fatalf("ReplacePartition: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "themes.json")); err != nil {
		t.Fatalf("themes.json not written: %v", err)
	}

	if err := s.ReplacePartition(ctx, "themes", map[string][]byte{
		"3": []byte(`{"productID":3,"name":"C"}`),
	}); err != nil {
		t.Fatalf("ReplacePartition: %v", err)
	}

	entries, err := s.LoadPartition(ctx, "themes")
	if err != nil {
		t.Fatalf("LoadPartition: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (replace must drop old keys)", len(entries))
	}
	if string(entries["3"]) != `{"productID":3,"name":"C"}` {
		t.Errorf("entry 3 = %s", entries["3"])
	}
}

func TestPutEntry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.PutEntry(ctx, "plugins", "9", []byte(`{"productID":9}`)); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	if err := s.PutEntry(ctx, "plugins", "9", []byte(`{"productID":9,"name":"new"}`)); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	entries, err := s.LoadPartition(ctx, "plugins")
	if err != nil {
		t.Fatalf("LoadPartition: %v", err)
	}
	if string(entries["9"]) != `{"productID":9,"name":"new"}` {
		t.Errorf("entry = %s", entries["9"])
	}
}

func TestAllPartitionUsesDBJSON(t *testing.T) {
	s, dir := newTestStore(t)

	if err := s.ReplacePartition(context.Background(), "all", map[string][]byte{"1": []byte(`{}`)}); err != nil {
		t.Fatalf("ReplacePartition: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "db.json")); err != nil {
		t.Errorf("db.json not written: %v", err)
	}
}

func TestLoadPartition_LegacyList(t *testing.T) {
	s, dir := newTestStore(t)
	legacy := `[{"productID":5,"name":"Old","category":"d"},{"name":"no id"}]`
	if err := os.WriteFile(filepath.Join(dir, "db.json"), []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	entries, err := s.LoadPartition(context.Background(), "all")
	if err != nil {
		t.Fatalf("LoadPartition: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if _, ok := entries["5"]; !ok {
		t.Error("legacy record 5 missing")
	}
}

func TestLoadPartition_LegacyCategoryBecomesDescription(t *testing.T) {
	s, dir := newTestStore(t)
	legacy := `[
		{"productID":5,"name":"Old","category":"<p>Page builder</p>","type":"plugin","image":"i.png"},
		{"productID":6,"name":"Full","description":"kept","category":"ignored"}
	]`
	if err := os.WriteFile(filepath.Join(dir, "db.json"), []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}

	entries, err := s.LoadPartition(context.Background(), "all")
	if err != nil {
		t.Fatalf("LoadPartition: %v", err)
	}

	var got struct {
		ID          int64   `json:"productID"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Category    *string `json:"category"`
		Type        string  `json:"type"`
		Image       string  `json:"image"`
	}
	if err := json.Unmarshal(entries["5"], &got); err != nil {
		t.Fatalf("decode 5: %v", err)
	}
	if got.Description != "<p>Page builder</p>" {
		t.Errorf("description = %q, want the legacy category", got.Description)
	}
	if got.Category != nil {
		t.Errorf("category still present: %q", *got.Category)
	}
	if got.ID != 5 || got.Name != "Old" || got.Type != "plugin" || got.Image != "i.png" {
		t.Errorf("other fields changed: %+v", got)
	}

	got.Description, got.Category = "", nil
	if err := json.Unmarshal(entries["6"], &got); err != nil {
		t.Fatalf("decode 6: %v", err)
	}
	if got.Description != "kept" {
		t.Errorf("description = %q, want kept", got.Description)
	}
}

func TestLoadPartition_Corrupt(t *testing.T) {
	s, dir := newTestStore(t)
	if err := os.WriteFile(filepath.Join(dir, "themes.json"), []byte(`{broken`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadPartition(context.Background(), "themes")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpLoad {
		t.Fatalf("expected db.Error LOAD, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s, _ := newTestStore(t)
	s.Close()
	s.Close()

	ctx := context.Background()
	if err := s.Ping(ctx); !errors.Is(err, db.ErrStoreClosed) {
		t.Errorf("Ping: expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.LoadPartition(ctx, "all"); !errors.Is(err, db.ErrStoreClosed) {
		t.Errorf("LoadPartition: expected ErrStoreClosed, got %v", err)
	}
	if err := s.ReplacePartition(ctx, "all", nil); !errors.Is(err, db.ErrStoreClosed) {
		t.Errorf("ReplacePartition: expected ErrStoreClosed, got %v", err)
	}
}
