package datastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements the Store interface using an in-memory map.
// This implementation is intended for testing and embedding.
type MemoryStore struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Insert persists a record to memory.
func (s *MemoryStore) Insert(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return fmt.Errorf("record ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record.Clone()
	return nil
}

// Count returns the number of records matching the selection.
func (s *MemoryStore) Count(ctx context.Context, sel *Selection) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if sel.Matches(record) {
			count++
		}
	}
	return count, nil
}

// SelectStream returns a channel of matching records ordered by timestamp
// ascending. The snapshot is taken under the read lock; the stream itself
// runs unlocked.
func (s *MemoryStore) SelectStream(ctx context.Context, sel *Selection) (<-chan *Record, <-chan error, error) {
	recordsCh := make(chan *Record, 100)
	errCh := make(chan error, 1)

	s.mu.RLock()
	matched := make([]*Record, 0)
	for _, record := range s.records {
		if sel.Matches(record) {
			matched = append(matched, record.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, record := range matched {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Delete removes records matching the selection at delete time.
func (s *MemoryStore) Delete(ctx context.Context, sel *Selection) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	toDelete := []string{}
	for id, record := range s.records {
		if sel.Matches(record) {
			toDelete = append(toDelete, id)
		}
	}

	for _, id := range toDelete {
		delete(s.records, id)
	}

	return int64(len(toDelete)), nil
}

// Close releases resources held by the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)
	return nil
}

// Clear removes all records from the store (for testing).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)
}

// Size returns the number of records in the store (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
