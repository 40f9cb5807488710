// ABOUTME: Runs the shared repository contract against the local and SQLite backends.
// ABOUTME: Postgres runs the same contract behind the integration build tag.
package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/harperreed/minilok/internal/storage"
	"github.com/harperreed/minilok/internal/storage/storagetest"
)

func TestLocalStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Repository {
		s, err := storage.OpenLocalInMemory()
		if err != nil {
			t.Fatalf("OpenLocalInMemory failed: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestDBContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Repository {
		db, err := storage.Open(storage.DBPath(t.TempDir()))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return db
	})
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	dir := storage.DataDir()
	if dir != filepath.Join("/tmp/xdg", "minilok") {
		t.Errorf("DataDir = %q", dir)
	}
	if got := storage.LocalDir(dir); got != filepath.Join(dir, "local") {
		t.Errorf("LocalDir = %q", got)
	}
	if got := storage.DBPath(dir); got != filepath.Join(dir, "minilok.db") {
		t.Errorf("DBPath = %q", got)
	}
}
