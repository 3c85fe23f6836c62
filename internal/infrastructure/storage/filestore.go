// Package storage persists uploaded visiting-card images on local disk.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStore writes uploads under a base directory with unique names, so two
// agents uploading "card.jpg" at the same time never collide.
type DiskStore struct {
	baseDir string
}

// NewDiskStore creates the base directory if needed and returns the store.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

// Save stores the upload and returns its path relative to the base directory.
// Only image uploads are accepted.
func (s *DiskStore) Save(filename string, contentType string, src io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q, want an image", contentType)
	}

	ext := filepath.Ext(filename)
	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	path := filepath.Join(s.baseDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *DiskStore) Remove(path string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.Base(path)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
