package simulation

import (
	"math"
	"math/rand"
)

// Shape parameters of the two mixture components.
const (
	influencedAlphaBase  = 18.0
	influencedAlphaSlope = 5.0
	influencedBeta       = 2.0
	baselineShape        = 5.0
)

// sampleGamma draws from Gamma(shape, 1) using Marsaglia and Tsang's method.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		// Boost to shape+1 and correct with U^(1/shape).
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// sampleBeta draws from Beta(alpha, beta) on [0, 1].
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// clip limits v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawTrial samples one trial value on the 0-100 scale from the mixture.
func drawTrial(rng *rand.Rand, weight float64) float64 {
	var x float64
	if rng.Float64() < weight {
		x = sampleBeta(rng, influencedAlphaBase+influencedAlphaSlope*weight, influencedBeta)
	} else {
		x = sampleBeta(rng, baselineShape, baselineShape)
	}
	return clip(x*100, 0, 100)
}

// drawBaseline samples one value of the reference Beta(5,5) distribution on the 0-100 scale.
func drawBaseline(rng *rand.Rand) float64 {
	return clip(sampleBeta(rng, baselineShape, baselineShape)*100, 0, 100)
}

// baselineVarianceClosedForm is the variance of 100*Beta(5,5).
func baselineVarianceClosedForm() float64 {
	a, b := baselineShape, baselineShape
	return 10000 * (a * b) / ((a + b) * (a + b) * (a + b + 1))
}
