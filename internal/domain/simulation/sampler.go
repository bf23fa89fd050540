package simulation

import "math"

// normalApproxThreshold is the mean at and above which Poisson counts are
// drawn from a normal approximation instead of Knuth's algorithm. It is part
// of the reproducibility contract.
const normalApproxThreshold = 30.0

// SampleVisitCount draws the number of visits for one day with expected
// value mean. A non-positive mean is a closed day and consumes no draws.
func SampleVisitCount(r *Rand, mean float64, d Dispersion) int {
	if mean <= 0 {
		return 0
	}
	switch d.Strategy {
	case StrategyNegativeBinomial:
		if d.K <= 0 {
			return samplePoisson(r, mean)
		}
		lambda := r.Gamma(d.K, mean/d.K)
		return samplePoisson(r, lambda)
	default:
		return samplePoisson(r, mean)
	}
}

func samplePoisson(r *Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda < normalApproxThreshold {
		threshold := math.Exp(-lambda)
		k := 0
		p := 1.0
		for p > threshold {
			k++
			p *= r.Float64()
		}
		return max(0, k-1)
	}
	x := r.Normal(lambda, math.Sqrt(lambda))
	return max(0, int(math.RoundToEven(x)))
}
