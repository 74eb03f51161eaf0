package random

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness consumed by the synthetic data generators.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// Locked is a *rand.Rand safe for concurrent use by HTTP handlers.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Locked source. A zero seed seeds from the clock.
func New(seed int64) *Locked {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Locked{rng: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

// Between returns a value in [lo, hi).
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
