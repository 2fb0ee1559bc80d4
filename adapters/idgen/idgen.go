// Package idgen provides registration and journal id generators.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/mira/ports"
	"github.com/google/uuid"
)

// UUID generates time-ordered UUIDs (version 7), so journal ids sort by
// creation time.
type UUID struct{}

// New generates a new UUID. Falls back to a random v4 if the v7 clock
// source fails.
func (UUID) New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var _ ports.IDGenerator = UUID{}

// Sequential generates prefix1, prefix2, ... (for tests and reproducible
// CLI output).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next id.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

var _ ports.IDGenerator = (*Sequential)(nil)
