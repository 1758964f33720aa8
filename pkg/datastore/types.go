package datastore

import (
	"context"
	"time"
)

// Record is the minimal shape of a platform record the retention engine
// operates on. The hot datastore partitions rows by DataType; Attributes
// carry the queryable tags a policy can filter on; Payload is opaque.
type Record struct {
	ID         string            `json:"id"`
	DataType   string            `json:"data_type"`
	Timestamp  time.Time         `json:"timestamp"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Payload    []byte            `json:"payload,omitempty"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	if r.Attributes != nil {
		c.Attributes = make(map[string]string, len(r.Attributes))
		for k, v := range r.Attributes {
			c.Attributes[k] = v
		}
	}
	if r.Payload != nil {
		c.Payload = make([]byte, len(r.Payload))
		copy(c.Payload, r.Payload)
	}
	return &c
}

// Selection is the predicate the retention engine evaluates: records of one
// data type strictly older than Before whose attributes match every filter.
type Selection struct {
	// DataType is the record category to select.
	DataType string `json:"data_type"`

	// Before is the exclusive upper bound: a record matches only if its
	// timestamp is strictly older. The zero value means no time bound.
	Before time.Time `json:"before"`

	// Filters maps attribute names to allowed values. A record matches only
	// if, for every listed attribute, its value is one of the allowed
	// values. Empty or nil matches all records of the data type.
	Filters map[string][]string `json:"filters,omitempty"`
}

// Matches reports whether a record satisfies the selection predicate.
func (s *Selection) Matches(r *Record) bool {
	if s.DataType != "" && r.DataType != s.DataType {
		return false
	}
	if !s.Before.IsZero() && !r.Timestamp.Before(s.Before) {
		return false
	}
	for attr, allowed := range s.Filters {
		value, ok := r.Attributes[attr]
		if !ok {
			return false
		}
		matched := false
		for _, v := range allowed {
			if value == v {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Store defines the interface for hot datastore backends the retention
// engine reads and deletes from. Implementations must be thread-safe.
type Store interface {
	// Insert persists a record. Used by tests, fixtures, and embedders;
	// the retention engine itself never inserts.
	Insert(ctx context.Context, record *Record) error

	// Count returns the number of records matching the selection.
	Count(ctx context.Context, sel *Selection) (int64, error)

	// SelectStream returns a channel of records matching the selection for
	// memory-efficient streaming, ordered by timestamp ascending.
	//
	// Returns:
	//   - recordsCh: Channel of records (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//   - error: Immediate error (e.g., invalid selection)
	//
	// The channels are closed when the stream completes or errors. Callers
	// should read from both channels until they are closed.
	SelectStream(ctx context.Context, sel *Selection) (<-chan *Record, <-chan error, error)

	// Delete removes records matching the selection, evaluated at delete
	// time, and returns the number of rows removed. Rows inserted after an
	// earlier SelectStream that do not match the predicate are untouched;
	// rows that no longer match are skipped without error.
	Delete(ctx context.Context, sel *Selection) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
