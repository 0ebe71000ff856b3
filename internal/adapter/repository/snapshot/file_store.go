package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/klauspost/compress/zstd"
)

const (
	dirPerm = 0755
)

// magicHeader prefixes every snapshot file; the rest is a zstd stream of JSON.
var magicHeader = []byte("LOGLENS1")

// FileStore keeps the current dataset in a single zstd-compressed file.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore creates a snapshot store writing to path, creating its directory if needed.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory for %s: %w", path, err)
	}
	return &FileStore{
		path:   path,
		logger: logger.With("component", "snapshot_store"),
	}, nil
}

// Save replaces the snapshot atomically: the dataset is written to a temporary
// file in the same directory which is then renamed over the old snapshot.
func (s *FileStore) Save(ctx context.Context, ds domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(magicHeader); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}
	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(ds); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	committed = true

	s.logger.Debug("snapshot saved", "dataset_id", ds.ID, "logs", len(ds.Logs))
	return nil
}

// Load reads the last saved dataset. It returns domain.ErrNotFound when no snapshot exists.
func (s *FileStore) Load(ctx context.Context) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(magicHeader))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, magicHeader) {
		return nil, fmt.Errorf("snapshot %s has an invalid header", s.path)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	var ds domain.Dataset
	if err := json.NewDecoder(dec).Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &ds, nil
}
