package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ferredist/catalog-service/internal/types"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("reconcile run not found")

// maxStoredRuns caps the file-backed run history. Postgres keeps runs
// until the retention job prunes them; the file store just keeps the tail.
const maxStoredRuns = 500

// RunStore persists the reconcile run audit trail. Like the catalog
// store it has a file-backed and a postgres implementation, matched to
// the configured catalog mode.
type RunStore interface {
	// Create records a new run, normally in running state.
	Create(ctx context.Context, run *types.RunRecord) error

	// Finish updates the run with its final status and counters.
	Finish(ctx context.Context, run *types.RunRecord) error

	// Get returns one run or ErrRunNotFound.
	Get(ctx context.Context, id string) (*types.RunRecord, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*types.RunRecord, error)

	// SweepStale marks running runs older than the threshold as
	// interrupted and returns how many were swept.
	SweepStale(ctx context.Context, olderThan time.Duration) (int, error)

	// Purge deletes finished runs older than the retention window.
	Purge(ctx context.Context, retention time.Duration) (int, error)
}

// FileRunStore keeps run records in a JSON file beside the catalog
// document, written with the same temp-and-rename discipline.
type FileRunStore struct {
	path string
	mu   sync.Mutex
}

// NewFileRunStore creates a file-backed run store.
func NewFileRunStore(path string) (*FileRunStore, error) {
	if path == "" {
		return nil, fmt.Errorf("run store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("run store: create directory: %w", err)
	}
	return &FileRunStore{path: path}, nil
}

func (s *FileRunStore) load() ([]*types.RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("run store: read %s: %w", s.path, err)
	}
	var runs []*types.RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("run store: parse %s: %w", s.path, err)
	}
	return runs, nil
}

func (s *FileRunStore) save(runs []*types.RunRecord) error {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > maxStoredRuns {
		runs = runs[:maxStoredRuns]
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("run store: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".runs-*.json.tmp")
	if err != nil {
		return fmt.Errorf("run store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("run store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("run store: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("run store: replace %s: %w", s.path, err)
	}
	return nil
}

// Create appends a new run record.
func (s *FileRunStore) Create(ctx context.Context, run *types.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.load()
	if err != nil {
		return err
	}
	runs = append(runs, run)
	return s.save(runs)
}

// Finish replaces the stored record for the run's ID.
func (s *FileRunStore) Finish(ctx context.Context, run *types.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.load()
	if err != nil {
		return err
	}
	for i, r := range runs {
		if r.ID == run.ID {
			runs[i] = run
			return s.save(runs)
		}
	}
	return ErrRunNotFound
}

// Get returns one run by ID.
func (s *FileRunStore) Get(ctx context.Context, id string) (*types.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrRunNotFound
}

// List returns recent runs, newest first.
func (s *FileRunStore) List(ctx context.Context, limit int) ([]*types.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// SweepStale marks old running runs as interrupted.
func (s *FileRunStore) SweepStale(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.load()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	swept := 0
	for _, r := range runs {
		if r.Status == types.StatusRunning && r.StartedAt.Before(cutoff) {
			r.Status = types.StatusInterrupted
			r.ErrorMessage = types.StringPtr("run interrupted: no completion recorded")
			swept++
		}
	}
	if swept == 0 {
		return 0, nil
	}
	return swept, s.save(runs)
}

// Purge drops finished runs older than the retention window.
func (s *FileRunStore) Purge(ctx context.Context, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.load()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	kept := runs[:0]
	purged := 0
	for _, r := range runs {
		if r.Status != types.StatusRunning && r.StartedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, s.save(kept)
}
