package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gosimple/slug"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
)

// FileStore keeps snapshots as JSON files in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based snapshot store.
// If baseDir is empty, defaults to ~/.local/share/justgrid/snapshots/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "justgrid", "snapshots")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// snapshotPath is a readable slug of the id plus a hash suffix, since
// distinct ids may share a slug.
func (s *FileStore) snapshotPath(galleryID string) string {
	name := slug.Make(galleryID) + "-" + cache.Hash([]byte(galleryID))[:8] + ".json"
	return filepath.Join(s.baseDir, name)
}

func (s *FileStore) Get(ctx context.Context, galleryID string) (*Snapshot, error) {
	if err := errors.ValidateGalleryID(galleryID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.snapshotPath(galleryID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := errors.ValidateGalleryID(snap.GalleryID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(snap.GalleryID), data, 0o600); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, galleryID string) error {
	if err := errors.ValidateGalleryID(galleryID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.snapshotPath(galleryID))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove snapshot file: %w", err)
	}
	return nil
}

// List reads the gallery id from every snapshot file; unreadable files
// are skipped.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var head struct {
			GalleryID string `json:"gallery_id"`
		}
		if json.Unmarshal(data, &head) != nil || head.GalleryID == "" {
			continue
		}
		ids = append(ids, head.GalleryID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for snapshot files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
