package store

import (
	"context"
	"sync"

	"msgcore/internal/domain"
)

// MemoryKeyStore keeps key material in process memory.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	data map[domain.KeyKind]map[string][]byte
}

// NewMemoryKeyStore returns an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{data: make(map[domain.KeyKind]map[string][]byte)}
}

// Get returns copies of the values stored under ids. Missing ids are absent
// from the result.
func (s *MemoryKeyStore) Get(_ context.Context, kind domain.KeyKind, ids []string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(ids))
	bucket := s.data[kind]
	for _, id := range ids {
		if v, ok := bucket[id]; ok {
			out[id] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Set applies every write in data. A nil value deletes the entry.
func (s *MemoryKeyStore) Set(_ context.Context, data domain.KeyData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, entries := range data {
		bucket, ok := s.data[kind]
		if !ok {
			bucket = make(map[string][]byte)
			s.data[kind] = bucket
		}
		for id, v := range entries {
			if v == nil {
				delete(bucket, id)
				continue
			}
			bucket[id] = append([]byte(nil), v...)
		}
	}
	return nil
}

var _ domain.KeyStore = (*MemoryKeyStore)(nil)
