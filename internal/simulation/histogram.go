package simulation

import (
	"math"
	"sort"
)

// Buckets is the number of histogram slots, one per integer percentage point.
const Buckets = 100

// Histogram counts sampled values by integer percentage point.
type Histogram [Buckets]int

// BucketIndex maps a 0-100 value to its slot. Out-of-range and NaN values are clipped.
func BucketIndex(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(clip(v, 0, Buckets-1)))
}

// Add records one value.
func (h *Histogram) Add(v float64) {
	h[BucketIndex(v)]++
}

// Total returns the sum of all buckets.
func (h *Histogram) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// NewHistogram tallies values into a histogram.
func NewHistogram(values []float64) Histogram {
	var h Histogram
	for _, v := range values {
		h.Add(v)
	}
	return h
}

// BaselineSigma is the standard deviation, in percentage points, of the share of
// favorable outcomes among trials fair coin flips.
func BaselineSigma(trials int) float64 {
	if trials <= 0 {
		return 0
	}
	n := float64(trials)
	return math.Sqrt(n*0.25) / n * 100
}

// NewBaselineHistogram discretizes a Gaussian centred on 50 with the binomial
// sigma of trials coin flips. The buckets sum to exactly trials.
func NewBaselineHistogram(trials int) Histogram {
	var h Histogram
	if trials <= 0 {
		return h
	}

	sigma := BaselineSigma(trials)
	cdf := func(x float64) float64 {
		return 0.5 * (1 + math.Erf((x-50)/(sigma*math.Sqrt2)))
	}

	// Edge buckets absorb the tails so the masses sum to one.
	var mass [Buckets]float64
	for i := 0; i < Buckets; i++ {
		lo, hi := 0.0, 1.0
		if i > 0 {
			lo = cdf(float64(i))
		}
		if i < Buckets-1 {
			hi = cdf(float64(i + 1))
		}
		mass[i] = hi - lo
	}

	// Largest remainder rounding keeps the total exact.
	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, 0, Buckets)
	assigned := 0
	for i, m := range mass {
		exact := m * float64(trials)
		whole := math.Floor(exact)
		h[i] = int(whole)
		assigned += h[i]
		rems = append(rems, remainder{idx: i, frac: exact - whole})
	}
	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})
	for i := 0; assigned < trials; i++ {
		h[rems[i%Buckets].idx]++
		assigned++
	}

	return h
}
