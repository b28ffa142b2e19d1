package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/objectsync/depsync"
)

// MemoryStore is an in-process record store backed by a map. It is used as
// the source and target store in tests and examples, and as a scratch
// target for dry-run experiments.
//
// MemoryStore is thread-safe, although the engine itself runs
// single-threaded.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*depsync.Record
	order   []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*depsync.Record)}
}

// Put seeds the store with a record, replacing any existing record with the
// same id. Returns the store for chaining while building fixtures.
func (s *MemoryStore) Put(record *depsync.Record) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = record
	return s
}

// Get fetches a record by id.
func (s *MemoryStore) Get(_ context.Context, id string) (*depsync.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", depsync.ErrRecordNotFound, id)
	}
	return record, nil
}

// List returns every record in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]*depsync.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*depsync.Record, 0, len(s.records))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

// Exists implements depsync.TargetStore.
func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.records[id]
	return ok, nil
}

// Create implements depsync.TargetStore. The stored record is a copy of
// the source record; the source instance stays untouched. Creating an id
// that already exists is an error; the importer checks existence first.
func (s *MemoryStore) Create(_ context.Context, source *depsync.Record, _ map[string]*depsync.Record) (*depsync.Record, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", depsync.ErrCreationFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[source.ID]; ok {
		return nil, fmt.Errorf("%w: record %q already exists", depsync.ErrCreationFailed, source.ID)
	}

	created := cloneRecord(source)
	s.records[created.ID] = created
	s.order = append(s.order, created.ID)
	return created, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(record *depsync.Record) *depsync.Record {
	clone := &depsync.Record{ID: record.ID, Type: record.Type}
	if record.Properties != nil {
		clone.Properties = make(map[string]any, len(record.Properties))
		for k, v := range record.Properties {
			clone.Properties[k] = v
		}
	}
	return clone
}
