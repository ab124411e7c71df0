package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ferredist/catalog-service/internal/catalog"
)

// DocumentStore persists the catalog as a single JSON object keyed by
// product code, the exact document the storefront reads. Commits write a
// temp file in the target directory and rename it over the old document;
// rename is atomic on the same filesystem, so a crash mid-commit leaves
// the previous catalog intact.
type DocumentStore struct {
	path string
	mu   sync.RWMutex
}

// NewDocumentStore creates a document store at the given file path. The
// parent directory is created when missing.
func NewDocumentStore(path string) (*DocumentStore, error) {
	if path == "" {
		return nil, fmt.Errorf("document store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("document store: create directory: %w", err)
	}
	return &DocumentStore{path: path}, nil
}

// Load reads the catalog document. A missing file is an empty catalog,
// not an error: the first reconcile run creates it.
func (s *DocumentStore) Load(ctx context.Context) (map[string]*catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadLocked()
}

func (s *DocumentStore) loadLocked() (map[string]*catalog.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*catalog.Entry{}, nil
		}
		return nil, fmt.Errorf("document store: read %s: %w", s.path, err)
	}

	entries := map[string]*catalog.Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("document store: parse %s: %w", s.path, err)
	}
	return entries, nil
}

// Commit writes the catalog atomically via temp file and rename.
func (s *DocumentStore) Commit(ctx context.Context, entries map[string]*catalog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(entries)
}

func (s *DocumentStore) commitLocked(entries map[string]*catalog.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("document store: marshal catalog: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json.tmp")
	if err != nil {
		return fmt.Errorf("document store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("document store: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("document store: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("document store: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("document store: replace %s: %w", s.path, err)
	}

	log.Debug().Str("path", s.path).Int("entries", len(entries)).Msg("Catalog document committed")
	return nil
}

// Get returns one entry from the document.
func (s *DocumentStore) Get(ctx context.Context, code string) (*catalog.Entry, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := entries[code]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// UpdateCurated applies an operator edit under the write lock so
// concurrent edits do not lose each other's fields.
func (s *DocumentStore) UpdateCurated(ctx context.Context, code string, update catalog.CuratedUpdate, now time.Time) (*catalog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	e, ok := entries[code]
	if !ok {
		return nil, ErrNotFound
	}

	e.ApplyCurated(update, now)
	if err := s.commitLocked(entries); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// Close is a no-op for the document store.
func (s *DocumentStore) Close() error { return nil }
