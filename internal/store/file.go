package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileKV persists each document as one JSON file inside a directory. It is
// the default backend for a single-operator deployment: no external service,
// and the overwrite is atomic (write to a temp file, then rename).
type FileKV struct {
	Dir string
}

// NewFileKV creates the backing directory if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store: file dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	return &FileKV{Dir: dir}, nil
}

// Load reads the full document for key.
func (f *FileKV) Load(_ context.Context, key string) ([]byte, error) {
	doc, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return doc, nil
}

// Save overwrites the document for key atomically.
func (f *FileKV) Save(_ context.Context, key string, doc []byte) error {
	target := f.path(key)
	tmp, err := os.CreateTemp(f.Dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: rename %s: %w", key, err)
	}
	return nil
}

// Ping verifies the backing directory is still writable.
func (f *FileKV) Ping(_ context.Context) error {
	info, err := os.Stat(f.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("store: %s is not a directory", f.Dir)
	}
	return nil
}

func (f *FileKV) path(key string) string {
	safe := strings.NewReplacer("/", "_", string(filepath.Separator), "_", ":", "_").Replace(key)
	return filepath.Join(f.Dir, safe+".json")
}
