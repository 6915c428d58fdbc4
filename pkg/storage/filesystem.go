package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for paths that escape the storage root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// SiteStorage keeps published site files under a root directory.
type SiteStorage struct {
	root string
}

// NewSiteStorage creates the root directory when missing.
func NewSiteStorage(root string) (*SiteStorage, error) {
	if root == "" {
		root = "./public"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve site root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create site root: %w", err)
	}
	return &SiteStorage{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *SiteStorage) Root() string {
	return s.root
}

// Save writes data to name, relative to the root, and returns the cleaned relative path.
func (s *SiteStorage) Save(name string, data []byte) (string, error) {
	rel, full, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("prepare site directory: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write site file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit site file: %w", err)
	}
	return rel, nil
}

// Open returns a read-only handle for a stored file.
func (s *SiteStorage) Open(name string) (*os.File, error) {
	_, full, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open site file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *SiteStorage) Delete(name string) error {
	_, full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete site file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files not modified within ttl and returns their relative paths.
// Directories left empty are removed as well.
func (s *SiteStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	var dirs []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root {
				dirs = append(dirs, path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup site files: %w", err)
	}
	// deepest first so parents empty out
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	return deleted, nil
}

func (s *SiteStorage) resolve(name string) (string, string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}
	return filepath.ToSlash(clean), filepath.Join(s.root, clean), nil
}
