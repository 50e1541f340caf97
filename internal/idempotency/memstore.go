package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It backs single-node deployments and
// the test suite; multi-node deployments use the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Insert(_ context.Context, rec *Record, expiredBefore time.Time) error {
	key := Scope{Endpoint: rec.Endpoint, APIClientID: rec.APIClientID, Key: rec.Key}.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[key]; ok && !existing.LockedAt.Before(expiredBefore) {
		return ErrDuplicateKey
	}
	clone := *rec
	s.records[key] = &clone
	return nil
}

func (s *MemoryStore) Find(_ context.Context, scope Scope, since time.Time) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[scope.String()]
	if !ok || rec.LockedAt.Before(since) {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryStore) Complete(_ context.Context, scope Scope, response []byte, statusCode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[scope.String()]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	rec.Response = response
	rec.StatusCode = statusCode
	rec.CompletedAt = &now
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, scope.String())
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, before time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int
	for key, rec := range s.records {
		if limit > 0 && purged >= limit {
			break
		}
		if rec.LockedAt.Before(before) {
			delete(s.records, key)
			purged++
		}
	}
	return purged, nil
}
