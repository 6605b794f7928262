package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates run ids "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike UUIDv7 ids these are stable across test runs, so stored runs and
// golden output can be compared byte for byte.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "run".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
