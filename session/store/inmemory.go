// Package store provides session.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/sweetpotato0/reagent/session"
)

// InMemoryStore keeps records in process memory. Useful for tests and
// single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*session.Record
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*session.Record)}
}

// Save stores a copy of the record.
func (s *InMemoryStore) Save(_ context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return session.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

// Load returns a copy of the record.
func (s *InMemoryStore) Load(_ context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return record.Clone(), nil
}

// Delete removes the record.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// List returns all record IDs in sorted order.
func (s *InMemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
