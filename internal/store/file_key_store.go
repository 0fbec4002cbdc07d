package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"msgcore/internal/domain"
)

// FileKeyStore persists each key kind as a JSON object in its own file under
// dir. Writes replace the file atomically.
type FileKeyStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileKeyStore returns a FileKeyStore rooted at dir, creating it if needed.
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileKeyStore{dir: dir}, nil
}

func (s *FileKeyStore) path(kind domain.KeyKind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

func (s *FileKeyStore) load(kind domain.KeyKind) (map[string][]byte, error) {
	m := map[string][]byte{}
	if err := readJSON(s.path(kind), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the values stored under ids. Missing ids are absent from the
// result.
func (s *FileKeyStore) Get(_ context.Context, kind domain.KeyKind, ids []string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(ids))
	for _, id := range ids {
		if v, ok := all[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// Set applies every write in data, one file per kind. A nil value deletes
// the entry.
func (s *FileKeyStore) Set(_ context.Context, data domain.KeyData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, entries := range data {
		all, err := s.load(kind)
		if err != nil {
			return err
		}
		for id, v := range entries {
			if v == nil {
				delete(all, id)
				continue
			}
			all[id] = v
		}
		if err := writeJSON(s.path(kind), all, 0o600); err != nil {
			return err
		}
	}
	return nil
}

var _ domain.KeyStore = (*FileKeyStore)(nil)
