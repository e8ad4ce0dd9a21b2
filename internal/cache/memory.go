package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. It is safe for concurrent
// use and copies payloads on both write and read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	return nil
}

func (s *MemoryStore) Put(_ context.Context, key Key, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		s.entries = make(map[string]Entry)
	}
	if entry.SchemaVersion == 0 {
		entry.SchemaVersion = CurrentSchemaVersion
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	s.entries[key.String()] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key.String()]
	if !ok || entry.SchemaVersion != CurrentSchemaVersion {
		return Entry{}, false, nil
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, true, nil
}
