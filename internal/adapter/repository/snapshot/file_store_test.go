package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/V4T54L/log-lens/internal/domain"
)

func setupTestStore(t *testing.T) *FileStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "dataset.snap"), logger)
	if err != nil {
		t.Fatalf("failed to create FileStore: %v", err)
	}
	return store
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	status := 503
	ds := domain.Dataset{
		ID:       "6a1f1c0e-1111-4c1a-9d7e-000000000001",
		Source:   "analysis:analysis_20240105T102231Z.json",
		LoadedAt: time.Date(2024, 1, 5, 10, 22, 31, 0, time.UTC),
		Logs: []domain.LogRecord{
			{Message: "upstream failed", Level: "ERROR", StatusCode: &status},
			{Message: "ok"},
		},
		Results:  []domain.ClassificationResult{{Category: "api", Priority: "high"}, {}},
		Warnings: []string{"line 3: skipped"},
	}

	if err := store.Save(context.Background(), ds); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	// A second save replaces the first.
	ds.Warnings = nil
	if err := store.Save(context.Background(), ds); err != nil {
		t.Fatalf("failed to save again: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if got.ID != ds.ID || got.Source != ds.Source || !got.LoadedAt.Equal(ds.LoadedAt) {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if len(got.Logs) != 2 || got.Logs[0].StatusCode == nil || *got.Logs[0].StatusCode != 503 {
		t.Errorf("logs mismatch: %+v", got.Logs)
	}
	if len(got.Results) != 2 || got.Results[0].Priority != "high" {
		t.Errorf("results mismatch: %+v", got.Results)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("expected warnings from the latest save only, got %v", got.Warnings)
	}

	entries, err := os.ReadDir(filepath.Dir(store.path))
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, found %d entries", len(entries))
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	store := setupTestStore(t)
	if err := os.WriteFile(store.path, []byte("not a snapshot"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	_, err := store.Load(context.Background())
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected a decode error, got %v", err)
	}
}
