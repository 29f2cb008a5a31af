package cache

import "math"

// ppm is the fixed-point scale of sampled hit rates.
const ppm = 1_000_000

// Assumed is a deterministic hit-rate model: after n accesses exactly
// floor(n * rate) of them have hit. Addresses are ignored.
type Assumed struct {
	rate  float64
	scale uint64
	stats Statistics
}

// NewAssumed creates a sampler with the given hit rate, clamped to [0, 1].
func NewAssumed(rate float64) *Assumed {
	rate = math.Max(0, math.Min(1, rate))
	return &Assumed{
		rate:  rate,
		scale: uint64(math.Round(rate * ppm)),
	}
}

// Rate returns the configured hit rate.
func (a *Assumed) Rate() float64 {
	return a.rate
}

// Access records an access and reports whether the sampler hits it.
func (a *Assumed) Access(_ uint64, isWrite bool) bool {
	if isWrite {
		a.stats.Writes++
	} else {
		a.stats.Reads++
	}

	n := a.stats.Accesses() + 1
	hit := n*a.scale/ppm > a.stats.Hits
	if hit {
		a.stats.Hits++
	} else {
		a.stats.Misses++
	}
	return hit
}

// Stats returns the sampled statistics.
func (a *Assumed) Stats() Statistics {
	return a.stats
}

// Reset clears the sampled statistics.
func (a *Assumed) Reset() {
	a.stats = Statistics{}
}
