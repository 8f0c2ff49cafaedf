package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one CSV file per key under Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates the cache directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{Dir: dir}, nil
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.Dir, key+".csv")
}

func (s *FileStore) Has(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", s.Path(key), ErrNotCached, err)
		}
		return nil, err
	}
	return data, nil
}

// Put writes value to a new file. It fails with os.ErrExist if key is already cached.
func (s *FileStore) Put(key string, value []byte) error {
	f, err := os.OpenFile(s.Path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.Path(key), err)
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.Path(key), err)
	}
	return f.Close()
}
