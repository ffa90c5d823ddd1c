package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs generates deterministic UUIDs for tests: a fixed prefix
// with an incrementing counter in the final segment. Golden files and
// round-trip assertions stay stable across runs.
//
// Thread-safety: Next is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu   sync.Mutex
	next int
}

// NewSequentialIDs creates a generator whose first ID ends in ...0001.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Next returns the next deterministic UUID.
func (g *SequentialIDs) Next() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return uuid.MustParse(fmt.Sprintf("00000000-0000-4000-8000-%012d", g.next))
}
