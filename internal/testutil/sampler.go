package testutil

import (
	"fmt"
	"sync"
)

// CountingSampler is a deterministic text sampler.
//
// Each sample is "<default>#<n>" where n counts every sample handed out, so
// samples are unique across calls and golden output stays stable.
type CountingSampler struct {
	mu    sync.Mutex
	n     int
	calls int
}

// Samples implements expand.Sampler.
func (s *CountingSampler) Samples(defaultValue string, count int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	out := make([]string, count)
	for i := range out {
		s.n++
		out[i] = fmt.Sprintf("%s#%d", defaultValue, s.n)
	}
	return out
}

// Calls returns how many times Samples was called.
func (s *CountingSampler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ConstSampler returns the same value for every sample.
type ConstSampler string

// Samples implements expand.Sampler.
func (c ConstSampler) Samples(_ string, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = string(c)
	}
	return out
}
