package simulation

import (
	"math"
	"math/rand"
	"time"

	"wish-machine/internal/stats"
)

// Engine performs outcome simulations. An Engine owns its random stream and is
// not safe for concurrent use; create one per goroutine.
type Engine struct {
	rng              *rand.Rand
	clock            Clock
	analyticBaseline bool
}

func NewEngine() *Engine {
	return &Engine{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		clock: SystemClock,
	}
}

// SetSeed resets the random stream for reproducible runs.
func (e *Engine) SetSeed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

// Replay seeds the random stream and fixes the clock at seed milliseconds past
// the epoch, so the same seed reproduces a run exactly.
func (e *Engine) Replay(seed int64) {
	e.SetSeed(seed)
	e.clock = FixedClock(time.UnixMilli(seed))
}

// SetClock replaces the clock used for the temporal factor.
func (e *Engine) SetClock(c Clock) {
	if c == nil {
		c = SystemClock
	}
	e.clock = c
}

// UseAnalyticBaseline switches the reference variance from a fresh Beta(5,5)
// sample to its closed form.
func (e *Engine) UseAnalyticBaseline(enabled bool) {
	e.analyticBaseline = enabled
}

// Run dispatches to the sampler for model.
func (e *Engine) Run(model Model, text string, intensity int) Result {
	if model == ModelWeighted {
		return e.SimulateWeighted(text, intensity)
	}
	return e.Simulate(text, intensity)
}

// Simulate draws NumTrials values from the mixture and reports statistics.
// Input is expected to have passed ValidateRequest.
func (e *Engine) Simulate(text string, intensity int) Result {
	params := DeriveParameters(text, intensity, e.rng, e.clock)

	values := make([]float64, NumTrials)
	for i := range values {
		values[i] = drawTrial(e.rng, params.MixtureWeight)
	}

	res := e.aggregate(values)
	res.Text = text
	res.Intensity = intensity
	res.Model = ModelMixture
	res.Parameters = params
	res.CoherenceLabel = CoherenceLabel(params.MixtureWeight)
	return res
}

// SimulateWeighted runs the two-state weighted choice: the favorable state is
// weighted 10^tanh(p) against 10^-tanh(p), p = intensity/50.
func (e *Engine) SimulateWeighted(text string, intensity int) Result {
	pref := float64(intensity) / 50
	value := math.Tanh(pref)
	up, down := math.Pow(10, value), math.Pow(10, -value)
	pFavorable := up / (up + down)

	values := make([]float64, NumTrials)
	for i := range values {
		if e.rng.Float64() < pFavorable {
			values[i] = 100
		}
	}

	res := e.aggregate(values)
	res.Text = text
	res.Intensity = intensity
	res.Model = ModelWeighted
	res.Parameters = Parameters{
		EntropyFactor:      EntropyFactor(text),
		NoiseFactor:        1,
		TemporalFactor:     1,
		PreferenceStrength: pref,
		MixtureWeight:      pFavorable,
	}
	res.CoherenceLabel = CoherenceLabel(pFavorable)
	return res
}

// aggregate folds the sampled values into counts, histograms and comparison metrics.
func (e *Engine) aggregate(values []float64) Result {
	favorable := 0
	for _, v := range values {
		if v > 50 {
			favorable++
		}
	}
	n := len(values)
	unfavorable := n - favorable

	favPct := percentOf(favorable, n)
	unfavPct := percentOf(unfavorable, n)

	hist := NewHistogram(values)
	peaks := DetectPeaks(hist)
	dominant := DominantPeak(peaks)

	trialVar := stats.CalculateVariance(values)
	baselineVar := e.baselineVariance(n)

	return Result{
		NumTrials:              n,
		FavorableCount:         favorable,
		UnfavorableCount:       unfavorable,
		FavorablePercent:       favPct,
		UnfavorablePercent:     unfavPct,
		DifferenceFromBaseline: favPct - 50.0,
		Histogram:              hist,
		BaselineHistogram:      NewBaselineHistogram(n),
		Peaks:                  peaks,
		DominantPeak:           dominant,
		PeakShift:              dominant - neutralPosition,
		SeparationScore:        SeparationScore(peaks),
		TrialVariance:          trialVar,
		BaselineVariance:       baselineVar,
		VarianceRatio:          VarianceRatio(trialVar, baselineVar),
	}
}

func (e *Engine) baselineVariance(n int) float64 {
	if e.analyticBaseline {
		return baselineVarianceClosedForm()
	}
	ref := make([]float64, n)
	for i := range ref {
		ref[i] = drawBaseline(e.rng)
	}
	return stats.CalculateVariance(ref)
}

func percentOf(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
