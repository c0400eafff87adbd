package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/daygrid/internal/persistence/filestore"
	"github.com/example/daygrid/internal/persistence/sqlite"
)

// SQLiteHarness provides an event repository backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Events *sqlite.EventRepository
	Pool   *sqlite.ConnectionPool

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary file that is
// migrated automatically. Callers may invoke Close themselves, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "daygrid.db")
	pool, err := sqlite.NewConnectionPool(sqlite.TestConfig(path))
	if err != nil {
		tb.Fatalf("failed to open sqlite pool: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate sqlite schema: %v", err)
	}

	harness := &SQLiteHarness{
		Events: sqlite.NewEventRepository(pool),
		Pool:   pool,
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// FilestoreHarness provides an event repository backed by a JSON file in a
// temporary directory.
type FilestoreHarness struct {
	Events *filestore.Store
	Path   string
}

// NewFilestoreHarness opens an empty file store under a temporary directory
// and registers its cleanup with the provided testing.TB.
func NewFilestoreHarness(tb testing.TB) *FilestoreHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "events.json")
	store, err := filestore.Open(path)
	if err != nil {
		tb.Fatalf("failed to open file store: %v", err)
	}

	tb.Cleanup(func() {
		_ = store.Close()
	})
	return &FilestoreHarness{Events: store, Path: path}
}
