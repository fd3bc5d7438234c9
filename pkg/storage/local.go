package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore is the local-filesystem driver: one file per key.
type LocalStore struct {
	root string // absolute root directory
}

// NewLocalStore creates a store rooted at root. Relative roots are resolved
// against the working directory.
func NewLocalStore(root string) (*LocalStore, error) {
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage/local: mkdir %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) abs(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("storage/local: get %s: %w", key, err)
	}
	return data, nil
}

// Put writes to a temp file and renames it over the target so a crash never
// leaves a half-written collection behind.
func (s *LocalStore) Put(key string, value []byte) error {
	full := s.abs(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage/local: rename %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Delete(key string) error {
	err := os.Remove(s.abs(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Exists(key string) bool {
	_, err := os.Stat(s.abs(key))
	return err == nil
}

func (s *LocalStore) Keys(prefix string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, _ := filepath.Rel(s.root, path)
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage/local: keys %s: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}
