package ga

import (
	"math/rand"
	"sync"
)

// Rand is a random stream shared by every operator of a run. It is safe for
// concurrent use, but replay is only deterministic when draws stay sequential.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand seeds a new shared stream.
func NewRand(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Intn returns a value in [0, n).
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
