package tracking

import (
	"context"
	"sync"
)

// Store keeps tracking records by key
type Store interface {
	// Get returns the stored record and whether one exists
	Get(ctx context.Context, key Key) (Record, bool, error)
	// Put replaces the record stored under key
	Put(ctx context.Context, key Key, r Record) error
	// ListByOrder returns the stored records of an order keyed by unit
	ListByOrder(ctx context.Context, orderID string) (map[int]Record, error)
}

// MemoryStore keeps records for the life of the process
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns a copy of the record stored under key
func (s *MemoryStore) Get(_ context.Context, key Key) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key.String()]
	if !ok {
		return Record{}, false, nil
	}
	return r.Clone(), true, nil
}

// Put stores a copy of r
func (s *MemoryStore) Put(_ context.Context, key Key, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key.String()] = r.Clone()
	return nil
}

// ListByOrder returns copies of the records stored for orderID
func (s *MemoryStore) ListByOrder(_ context.Context, orderID string) (map[int]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]Record)
	for unit := 1; unit <= SubItemsPerUnit; unit++ {
		if r, ok := s.records[Key{OrderID: orderID, Unit: unit}.String()]; ok {
			out[unit] = r.Clone()
		}
	}
	return out, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
