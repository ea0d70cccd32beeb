// Package storage persists uploaded files on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Categories files are stored under, relative to the uploads root.
const (
	CategoryProfilePictures = "profile_pictures"
	CategoryDocuments       = "documents"
)

// DiskStore writes uploads below a single root directory. Paths handed out
// to callers are always relative to that root so database rows stay valid
// when the root moves.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root and category directories if missing.
func NewDiskStore(root string) (*DiskStore, error) {
	for _, dir := range []string{root, filepath.Join(root, CategoryProfilePictures), filepath.Join(root, CategoryDocuments)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}
	return &DiskStore{root: root}, nil
}

// Save streams r into <root>/<category>/<filename> and returns the relative
// path. The filename must already be sanitised by the caller.
func (s *DiskStore) Save(category, filename string, r io.Reader) (string, error) {
	rel := filepath.Join(category, filename)
	abs, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(abs)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return rel, nil
}

// Open returns a reader for a previously saved file.
func (s *DiskStore) Open(rel string) (io.ReadCloser, error) {
	abs, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open file: %w", err)
	}
	return f, nil
}

// Remove deletes a stored file. Missing files are not an error: the database
// row is authoritative and the file may already be gone.
func (s *DiskStore) Remove(rel string) error {
	abs, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// resolve joins rel onto the root and refuses path escapes.
func (s *DiskStore) resolve(rel string) (string, error) {
	abs := filepath.Join(s.root, filepath.Clean("/"+rel))
	if !strings.HasPrefix(abs, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path %q escapes uploads root", rel)
	}
	return abs, nil
}
