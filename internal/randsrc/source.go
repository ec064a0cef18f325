// Package randsrc provides the injectable random source used by the
// price generator, token factory and tick engine.
package randsrc

import (
	"math/rand/v2"
)

// Source is the randomness capability. *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Uint64 returns a uniform 64-bit value.
	Uint64() uint64
}

// NewSeeded returns a deterministic source for the given seed.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewEntropy returns a source seeded from the runtime's entropy.
func NewEntropy() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// New returns a seeded source when seed != 0, otherwise an entropy source.
func New(seed uint64) *rand.Rand {
	if seed == 0 {
		return NewEntropy()
	}
	return NewSeeded(seed)
}

// Between returns a uniform value in [lo, hi).
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Sign returns +1 or -1 with equal probability.
func Sign(src Source) float64 {
	if src.Float64() > 0.5 {
		return 1
	}
	return -1
}

// Intn returns a uniform int in [0, n). n must be positive.
func Intn(src Source, n int) int {
	return int(src.Float64() * float64(n))
}
