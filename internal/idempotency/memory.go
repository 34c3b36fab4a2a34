package idempotency

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memKey struct {
	owner, key string
}

type MemoryStore struct {
	mu      sync.Mutex
	records map[memKey]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memKey]Record)}
}

func (s *MemoryStore) Get(_ context.Context, ownerID, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[memKey{ownerID, key}]
	if !ok {
		return Record{}, false, nil
	}
	rec.Body = slices.Clone(rec.Body)
	return rec, true, nil
}

func (s *MemoryStore) Save(_ context.Context, ownerID, key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Body = slices.Clone(rec.Body)
	s.records[memKey{ownerID, key}] = rec
	return nil
}

func (s *MemoryStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}
