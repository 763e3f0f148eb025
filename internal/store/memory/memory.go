// Package memory holds the in-process, append-only record sequence.
package memory

import (
	"context"
	"fmt"
	"sync"

	"payboard/internal/core"
)

// Store keeps the current sequence as an immutable slice. Append builds a
// new slice and swaps it in, so snapshots handed out earlier never change.
type Store struct {
	mu      sync.RWMutex
	records []core.Record
}

// New returns a store seeded with a copy of initial.
func New(initial []core.Record) *Store {
	return &Store{records: append([]core.Record(nil), initial...)}
}

// NewSeeded returns a store holding the default seed sequence.
func NewSeeded() *Store {
	return New(core.Seed())
}

// Records returns the current sequence. The caller owns the returned slice.
func (s *Store) Records(_ context.Context) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Append adds r at the end of the sequence and returns the new sequence.
func (s *Store) Append(_ context.Context, r core.Record) ([]core.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]core.Record, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, r)
	s.records = next
	return append([]core.Record(nil), next...), nil
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
