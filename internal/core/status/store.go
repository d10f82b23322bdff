// Package status holds the most recently published health verdict.
package status

import (
	"sync/atomic"

	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

// Store is a single-slot holder for the latest verdict.
// Publish swaps in a new immutable snapshot; Load never observes a partial update.
type Store struct {
	current atomic.Pointer[domain.HealthVerdict]
}

// NewStore returns a store seeded with the zero verdict (unhealthy, never checked).
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&domain.HealthVerdict{})
	return s
}

// Publish replaces the current verdict.
func (s *Store) Publish(v domain.HealthVerdict) {
	s.current.Store(&v)
}

// Load returns a copy of the current verdict.
func (s *Store) Load() domain.HealthVerdict {
	return *s.current.Load()
}
