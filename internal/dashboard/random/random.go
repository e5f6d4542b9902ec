// Package random isolates every non-deterministic number the dashboard emits.
// Production code uses a time-seeded source; tests inject a fixed seed.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source produces bounded pseudo-random values.
type Source interface {
	// IntBetween returns an int in [min, max].
	IntBetween(min, max int) int
	// FloatBetween returns a float in [min, max).
	FloatBetween(min, max float64) float64
}

// Seeded is a mutex-guarded PCG source, safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a source whose sequence is fully determined by seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// New returns a source seeded from the wall clock.
func New() *Seeded {
	return NewSeeded(uint64(time.Now().UnixNano()))
}

// IntBetween returns an int in [min, max]. Swapped bounds are tolerated.
func (s *Seeded) IntBetween(min, max int) int {
	if max < min {
		min, max = max, min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.IntN(max-min+1)
}

// FloatBetween returns a float in [min, max).
func (s *Seeded) FloatBetween(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.Float64()*(max-min)
}
