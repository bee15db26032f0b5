package testutil

import (
	"fmt"
	"sync"
)

// DeterministicIDs hands out sequential node IDs for in-memory hosts.
//
// The first call to Next returns "<prefix>-1". Thread-safe.
type DeterministicIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewDeterministicIDs creates an ID sequence. An empty prefix defaults to
// "node".
func NewDeterministicIDs(prefix string) *DeterministicIDs {
	if prefix == "" {
		prefix = "node"
	}
	return &DeterministicIDs{prefix: prefix}
}

// Next returns the next ID. Usable as document.WithIDGenerator(ids.Next).
func (d *DeterministicIDs) Next() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n++
	return fmt.Sprintf("%s-%d", d.prefix, d.n)
}

// Issued returns how many IDs have been handed out.
func (d *DeterministicIDs) Issued() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// Reset restarts the sequence at 1.
func (d *DeterministicIDs) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n = 0
}
