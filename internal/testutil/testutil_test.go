package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicIDs_Sequential(t *testing.T) {
	ids := NewDeterministicIDs("inst")

	assert.Equal(t, "inst-1", ids.Next())
	assert.Equal(t, "inst-2", ids.Next())
	assert.Equal(t, 2, ids.Issued())

	ids.Reset()
	assert.Equal(t, "inst-1", ids.Next())
}

func TestDeterministicIDs_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "node-1", NewDeterministicIDs("").Next())
}

func TestDeterministicIDs_ConcurrentUnique(t *testing.T) {
	ids := NewDeterministicIDs("c")
	const workers, per = 8, 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				id := ids.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*per)
}

func TestCountingSampler(t *testing.T) {
	var s CountingSampler

	require.Equal(t, []string{"Go#1", "Go#2"}, s.Samples("Go", 2))
	require.Equal(t, []string{"Hi#3"}, s.Samples("Hi", 1))
	assert.Equal(t, 2, s.Calls())
}

func TestConstSampler(t *testing.T) {
	assert.Equal(t, []string{"x", "x", "x"}, ConstSampler("x").Samples("ignored", 3))
}
