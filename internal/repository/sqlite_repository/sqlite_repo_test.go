package sqliterepository

import (
	"context"
	"path/filepath"
	"testing"

	"workOrders/internal/repository"

	"github.com/pkg/errors"
)

func TestSqliteRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	repo, err := NewSqliteRepository(path)
	if err != nil {
		t.Fatalf("NewSqliteRepository failed: %v", err)
	}

	_, err = repo.Get(ctx, "lastSyncTime")
	var notFound *repository.ErrorNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("want ErrorNotFound for a missing key, got %v", err)
	}

	if err := repo.Set(ctx, "lastSyncTime", "2026-10-17T09:00:00Z"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.Set(ctx, "lastSyncTime", "2026-10-17T10:00:00Z"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	value, err := repo.Get(ctx, "lastSyncTime")
	if err != nil || value != "2026-10-17T10:00:00Z" {
		t.Errorf("got %q, %v", value, err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewSqliteRepository(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	value, err = reopened.Get(ctx, "lastSyncTime")
	if err != nil || value != "2026-10-17T10:00:00Z" {
		t.Errorf("value not persisted: %q, %v", value, err)
	}

	if err := reopened.Delete(ctx, "lastSyncTime"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := reopened.Get(ctx, "lastSyncTime"); !errors.As(err, &notFound) {
		t.Errorf("want ErrorNotFound after delete, got %v", err)
	}
}
