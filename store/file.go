package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes artifacts into a directory tree laid out like the
// published repository, e.g. a local checkout that is committed separately.
type FileStore struct {
	root   string
	layout Layout
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root, layout: DefaultLayout}
}

func (s *FileStore) path(addr Address) string {
	return filepath.Join(s.root, filepath.FromSlash(s.layout.Path(addr)))
}

func (s *FileStore) Read(_ context.Context, addr Address) ([]byte, bool, error) {
	if err := addr.Validate(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(addr))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", addr, err)
	}
	return data, true, nil
}

// Write replaces the file atomically through a rename. Identical content is left untouched.
func (s *FileStore) Write(_ context.Context, addr Address, content []byte) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	p := s.path(addr)
	if existing, err := os.ReadFile(p); err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", addr, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", addr, err)
	}
	return nil
}
