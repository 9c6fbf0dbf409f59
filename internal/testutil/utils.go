package testutil

import (
	"context"
	"testing"

	"github.com/npezzotti/basic-chat/internal/database"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestLogger(t *testing.T) *zap.SugaredLogger {
	return zaptest.NewLogger(t).Sugar()
}

// TestStore opens a migrated in-memory sqlite store that is closed when the
// test ends.
func TestStore(t *testing.T) *database.RowStore {
	t.Helper()
	store, err := database.Open(context.Background(), database.DriverSQLite, ":memory:", TestLogger(t))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
