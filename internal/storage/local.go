// Package storage persists expense attachments. The local-disk store
// keeps files under <root>/<subdir>/ with generated names so uploads
// can never collide or traverse outside the storage root.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"expenseflow/internal/uuid"
)

// Store is the attachment storage contract consumed by the expense service.
type Store interface {
	Save(subdir, originalName string, r io.Reader) (string, error)
	Delete(path string) error
}

// LocalStore stores attachments on the local filesystem.
type LocalStore struct {
	root string
}

// NewLocalStore creates the storage root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Save writes the file under subdir with a UUIDv7 name, preserving the
// original extension, and returns the stored path.
func (s *LocalStore) Save(subdir, originalName string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, filepath.Clean("/"+subdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachment directory: %w", err)
	}

	name := uuid.New() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write attachment file: %w", err)
	}
	return path, nil
}

// Delete removes a stored file. Paths outside the storage root are refused.
func (s *LocalStore) Delete(path string) error {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the storage root", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete attachment file: %w", err)
	}
	return nil
}
