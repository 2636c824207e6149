package waveform

import "math/rand"

// Noise is the injectable randomness source for a generator instance.
// Production uses a freshly seeded *rand.Rand per instance; tests
// inject a fixed seed so runs are reproducible.
type Noise interface {
	// Float64 returns a draw in [0,1).
	Float64() float64
	// NormFloat64 returns a standard normal draw.
	NormFloat64() float64
}

// NewNoise returns a seedable noise source. A zero seed is replaced by
// the caller; this package never reads the wall clock.
func NewNoise(seed int64) Noise {
	return rand.New(rand.NewSource(seed))
}

// Centered scales a [0,1) draw into [-level, level).
func Centered(n Noise, level float64) float64 {
	return level * (2*n.Float64() - 1)
}
