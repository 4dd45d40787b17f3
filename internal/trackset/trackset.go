// Package trackset tracks which track IDs have been seen.
//
// Set is exact and lives for a single build. Filter is a compact,
// probabilistic record of every track a listener has already been given,
// kept across builds and persisted between runs.
package trackset

import "sync"

// Set is a thread-safe, exact set of track IDs.
type Set struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// New creates a set sized for about expected IDs.
func New(expected int) *Set {
	return &Set{ids: make(map[string]struct{}, max(expected, 0))}
}

// Has reports whether id is in the set.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Add inserts id and reports whether it was not already present.
// Empty IDs are ignored.
func (s *Set) Add(id string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// AddAll inserts every non-empty id.
func (s *Set) AddAll(ids []string) {
	for _, id := range ids {
		s.Add(id)
	}
}

// Len returns the number of IDs in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
