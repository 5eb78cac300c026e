package imaging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FilesPath is the URL path under which stored outputs are served.
const FilesPath = "/files/"

// TempPrefix names in-progress writes. A crash mid-write can leave such
// files behind; they are never served under a tool URL.
const TempPrefix = "temp_"

// Store writes processed images to a directory and builds their public URLs.
//
// Thread Safety: Store is safe for concurrent use; every file gets a fresh
// UUID name.
type Store struct {
	dir     string
	baseURL string
}

// NewStore creates dir if needed. baseURL prefixes generated URLs; empty
// yields root-relative URLs.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a new name with extension ext and returns its URL.
// The file only appears under its final name once fully written.
func (s *Store) Save(data []byte, ext string) (string, error) {
	name := uuid.NewString() + ext

	tmp, err := os.CreateTemp(s.dir, TempPrefix+"*"+ext)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return s.baseURL + FilesPath + name, nil
}

// PruneBefore deletes stored files last modified before cutoff, stale
// temp files included, and returns how many were removed. Subdirectories
// are left alone.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read output directory: %w", err)
	}

	var deleted int64
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed concurrently.
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}
