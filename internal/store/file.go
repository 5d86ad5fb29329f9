package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// File stores one file per key under a directory. Keys are path-escaped so
// any key maps to a single file name.
type File struct {
	dir string
}

// NewFile creates dir if needed and returns a File store rooted there.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("store.NewFile: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store.NewFile: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.File.Get %q: %w", key, err)
	}
	return data, nil
}

// Set writes to a temporary file and renames it into place.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("store.File.Set %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("store.File.Set %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store.File.Set %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("store.File.Set %q: %w", key, err)
	}
	return nil
}
