package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferredist/catalog-service/internal/catalog"
)

// ErrNotFound is returned when a catalog code does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Store is the persistence boundary for the catalog. Two implementations
// exist: DocumentStore keeps the whole catalog in one JSON file the way
// the storefront consumes it, PostgresStore keeps one row per code.
//
// Commit must be atomic: readers see either the previous catalog or the
// new one, never a half-written state.
type Store interface {
	// Load returns the full catalog keyed by product code. A store that
	// has never been committed to returns an empty map.
	Load(ctx context.Context) (map[string]*catalog.Entry, error)

	// Commit persists the full catalog atomically.
	Commit(ctx context.Context, entries map[string]*catalog.Entry) error

	// Get returns a single entry or ErrNotFound.
	Get(ctx context.Context, code string) (*catalog.Entry, error)

	// UpdateCurated applies an operator edit to one entry and returns the
	// updated entry.
	UpdateCurated(ctx context.Context, code string, update catalog.CuratedUpdate, now time.Time) (*catalog.Entry, error)

	// Close releases any resources held by the store.
	Close() error
}

// Mode names a configured store implementation.
type Mode string

const (
	ModeDocument Mode = "document"
	ModePostgres Mode = "postgres"
)

// ParseMode validates a configured store mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDocument, ModePostgres:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown catalog store %q (valid: document, postgres)", s)
	}
}
