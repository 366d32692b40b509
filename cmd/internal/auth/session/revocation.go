package session

import (
	"context"
	"sync"
)

// RevocationStore persists logged-out tokens.
//
// Entries are keyed by the exact raw token string. Record never deduplicates and
// nothing is ever purged, so the set only grows.
type RevocationStore interface {
	Record(ctx context.Context, raw string) error
	IsRevoked(ctx context.Context, raw string) (bool, error)
}

// MemoryRevocationStore is an in-process RevocationStore used when no database is configured.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]int
}

// NewMemoryRevocationStore returns an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]int)}
}

func (s *MemoryRevocationStore) Record(ctx context.Context, raw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[raw]++
	s.mu.Unlock()
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, raw string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[raw] > 0, nil
}

// Len returns the number of recorded entries, duplicates included.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.entries {
		n += c
	}
	return n
}
