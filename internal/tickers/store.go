package tickers

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ListStore persists the ordered ticker list between stages.
type ListStore interface {
	Load() ([]string, error)
	Save(symbols []string) error
}

// FileListStore keeps the list as a JSON array on disk.
type FileListStore struct {
	Path string
}

func NewFileListStore(path string) *FileListStore {
	return &FileListStore{Path: path}
}

// Load reads the list. A missing file is an error wrapping os.ErrNotExist.
func (s *FileListStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read ticker list: %w", err)
	}
	var symbols []string
	if err := json.Unmarshal(data, &symbols); err != nil {
		return nil, fmt.Errorf("decode ticker list %s: %w", s.Path, err)
	}
	return symbols, nil
}

// Save writes the list, overwriting any previous file.
func (s *FileListStore) Save(symbols []string) error {
	if symbols == nil {
		symbols = []string{}
	}
	data, err := json.MarshalIndent(symbols, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0644)
}

// MemListStore is an in-memory ListStore for tests.
type MemListStore struct {
	mu      sync.Mutex
	symbols []string
	saved   bool
}

func (s *MemListStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, fmt.Errorf("read ticker list: %w", os.ErrNotExist)
	}
	return append([]string(nil), s.symbols...), nil
}

func (s *MemListStore) Save(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append([]string(nil), symbols...)
	s.saved = true
	return nil
}
