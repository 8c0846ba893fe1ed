package statestore

import (
	"context"
	"sync"
	"time"

	"shopify-oauth-layer/internal/ports"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps state in process. Suitable for a single instance only.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ ports.StateStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory state store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", ports.ErrStateNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return "", ports.ErrStateNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", ports.ErrStateNotFound
	}
	delete(s.entries, key)
	if !s.now().Before(entry.expiresAt) {
		return "", ports.ErrStateNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len returns the number of entries, expired ones included until the next sweep.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
