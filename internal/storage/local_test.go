package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSave(t *testing.T) {
	t.Run("stores_under_subdir", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		path, err := store.Save("user_1/expense_2", "receipt.PDF", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("stored file unreadable: %v", err)
		}
		if string(data) != "content" {
			t.Errorf("expected stored content, got %q", data)
		}
		if filepath.Ext(path) != ".pdf" {
			t.Errorf("expected lowercased extension preserved, got %s", path)
		}
	})

	t.Run("generated_names_never_collide", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		a, err := store.Save("x", "same.txt", strings.NewReader("a"))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		b, err := store.Save("x", "same.txt", strings.NewReader("b"))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if a == b {
			t.Error("expected distinct stored paths for identical original names")
		}
	})

	t.Run("traversal_subdir_stays_inside_root", func(t *testing.T) {
		root := t.TempDir()
		store, err := NewLocalStore(root)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		path, err := store.Save("../../etc", "evil.txt", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			t.Errorf("stored path escaped the root: %s", path)
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes_stored_file", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		path, err := store.Save("a", "f.txt", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}

		if err := store.Delete(path); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Error("expected file removed")
		}
	})

	t.Run("refuses_paths_outside_root", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		outside := filepath.Join(t.TempDir(), "other.txt")
		if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if err := store.Delete(outside); err == nil {
			t.Error("expected delete outside the root to be refused")
		}
		if _, statErr := os.Stat(outside); statErr != nil {
			t.Error("expected outside file untouched")
		}
	})

	t.Run("missing_file_is_not_an_error", func(t *testing.T) {
		root := t.TempDir()
		store, err := NewLocalStore(root)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		if err := store.Delete(filepath.Join(root, "gone.txt")); err != nil {
			t.Errorf("expected missing file delete to succeed, got %v", err)
		}
	})
}
