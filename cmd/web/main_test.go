package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDataDir(t *testing.T) {
	root := t.TempDir()

	dsn := "file:" + filepath.Join(root, "a", "b", "laxmi.db") + "?_pragma=busy_timeout(5000)"
	if err := ensureDataDir(dsn); err != nil {
		t.Fatalf("ensureDataDir: %v", err)
	}
	if fi, err := os.Stat(filepath.Join(root, "a", "b")); err != nil || !fi.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}

	if err := ensureDataDir(":memory:"); err != nil {
		t.Fatalf(":memory: %v", err)
	}
}

func TestEnsureDataDir_ReportsFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "data")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ensureDataDir(filepath.Join(blocker, "laxmi.db")); err == nil {
		t.Fatal("expected error when the parent is a file")
	}
}
