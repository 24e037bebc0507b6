package testutil

import (
	"testing"

	"foodwaste/internal/database"
)

// NewTestStore creates an in-memory SQLite store with migrations applied.
// The store is closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	s, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	if _, err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	return s
}
