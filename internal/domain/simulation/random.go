package simulation

import (
	"math"
	"math/rand/v2"
)

// runStream separates the run source from sub-generators seeded with the
// same integer.
const runStream = 0x5eed_2025

// Rand is the single run-wide random source. It wraps a PCG generator so the
// draw sequence is identical on every platform.
type Rand struct {
	*rand.Rand
}

// NewRand returns the run source for seed.
func NewRand(seed int64) *Rand {
	return &Rand{Rand: rand.New(rand.NewPCG(uint64(seed), runStream))}
}

// IntRange returns a uniform integer in [lo, hi].
func (r *Rand) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Normal draws from N(mu, sigma^2).
func (r *Rand) Normal(mu, sigma float64) float64 {
	return mu + sigma*r.NormFloat64()
}

// Gamma draws from a Gamma distribution with the given shape and scale using
// Marsaglia and Tsang's method. Shapes below one are boosted by one and
// corrected with a uniform power draw taken after the boosted sample.
func (r *Rand) Gamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		return 0
	}
	if shape < 1 {
		g := r.Gamma(shape+1, scale)
		return g * math.Pow(r.Float64(), 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = r.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := r.Float64()
		x2 := x * x
		if u < 1-0.0331*x2*x2 {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x2+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}
