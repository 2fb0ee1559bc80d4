package capability

import "sync"

// store keeps entries in registration order and indexes them by module GUID.
// Thread-safe for concurrent access.
type store[T any] struct {
	mu sync.RWMutex

	entries []T

	// byModule maps module GUID -> positions in entries
	byModule map[string][]int
}

func newStore[T any]() *store[T] {
	return &store[T]{
		byModule: make(map[string][]int),
	}
}

// add appends e and returns its position. Positions are dense and start at 0,
// so they double as sequential ids.
func (s *store[T]) add(module string, build func(pos int) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := len(s.entries)
	e := build(pos)
	s.entries = append(s.entries, e)
	s.byModule[module] = append(s.byModule[module], pos)
	return e
}

func (s *store[T]) all() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, len(s.entries))
	copy(result, s.entries)
	return result
}

func (s *store[T]) module(guid string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byModule[guid]
	result := make([]T, 0, len(positions))
	for _, pos := range positions {
		result = append(result, s.entries[pos])
	}
	return result
}

// find returns the first entry matching fn.
func (s *store[T]) find(fn func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if fn(e) {
			return e, true
		}
	}
	var zero T
	return zero, false
}

func (s *store[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
