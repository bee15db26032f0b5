package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store in a temp dir with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.SetClock(stepClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	return s
}

// stepClock returns a clock that advances one second per call, so rows get
// distinct, ordered timestamps.
func stepClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Second)
		return t
	}
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id string) Run {
	return Run{
		ID:            id,
		Surface:       "Playground",
		ComponentID:   "1:1",
		ComponentName: "Button",
		Combinations:  4,
	}
}
