package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/persistence"
	"github.com/example/geo-attendance/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated key/value repository on a temporary
// SQLite file together with a record store over it.
type SQLiteHarness struct {
	Repository persistence.KeyValueRepository
	Store      *attendance.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness. Close is registered with tb
// and may also be called explicitly.
func NewSQLiteHarness(tb testing.TB, opts ...attendance.StoreOption) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "attendance.db")

	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Repository: storage,
		Store:      attendance.NewStore(storage, opts...),
		cleanup: func() {
			_ = storage.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
