package simulation

import (
	"math"
	"reflect"
	"testing"
	"time"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newTestEngine(seed int64) *Engine {
	e := NewEngine()
	e.SetSeed(seed)
	e.SetClock(FixedClock(fixedNow))
	return e
}

func TestEngine_CountsAndHistogramsSumToTrials(t *testing.T) {
	for _, intensity := range []int{1, 2, 25, 50, 51, 75, 99, 100} {
		e := newTestEngine(int64(intensity))
		res := e.Simulate("I wish for a sunny weekend", intensity)

		if res.FavorableCount+res.UnfavorableCount != NumTrials {
			t.Errorf("intensity %d: counts sum to %d, want %d", intensity, res.FavorableCount+res.UnfavorableCount, NumTrials)
		}
		if got := res.Histogram.Total(); got != NumTrials {
			t.Errorf("intensity %d: trial histogram sums to %d, want %d", intensity, got, NumTrials)
		}
		if got := res.BaselineHistogram.Total(); got != NumTrials {
			t.Errorf("intensity %d: baseline histogram sums to %d, want %d", intensity, got, NumTrials)
		}
		for i, c := range res.Histogram {
			if c < 0 {
				t.Errorf("intensity %d: bucket %d is negative (%d)", intensity, i, c)
			}
		}
		if w := res.Parameters.MixtureWeight; w < 0 || w > 0.95 {
			t.Errorf("intensity %d: mixture weight %f outside [0, 0.95]", intensity, w)
		}
		if math.Abs(res.FavorablePercent+res.UnfavorablePercent-100) > 1e-9 {
			t.Errorf("intensity %d: percentages sum to %f", intensity, res.FavorablePercent+res.UnfavorablePercent)
		}
		if res.DifferenceFromBaseline != res.FavorablePercent-50 {
			t.Errorf("intensity %d: difference %f, want %f", intensity, res.DifferenceFromBaseline, res.FavorablePercent-50)
		}
		if res.PeakShift != res.DominantPeak-50 {
			t.Errorf("intensity %d: peak shift %d, dominant %d", intensity, res.PeakShift, res.DominantPeak)
		}
		if res.SeparationScore < 0 || res.SeparationScore > 1 {
			t.Errorf("intensity %d: separation %f outside [0,1]", intensity, res.SeparationScore)
		}
	}
}

func TestEngine_DeterministicWithSeedAndClock(t *testing.T) {
	a := newTestEngine(42).Simulate("a quiet cabin by the lake", 64)
	b := newTestEngine(42).Simulate("a quiet cabin by the lake", 64)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical seed and clock produced different results:\n%+v\n%+v", a, b)
	}
}

func TestEngine_EntropyFactorIndependentOfSeed(t *testing.T) {
	a := newTestEngine(1).Simulate("test wish", 60)
	b := newTestEngine(2).Simulate("test wish", 60)

	if a.Parameters.EntropyFactor != b.Parameters.EntropyFactor {
		t.Errorf("entropy factor changed with seed: %f vs %f", a.Parameters.EntropyFactor, b.Parameters.EntropyFactor)
	}
	if a.Histogram == b.Histogram {
		t.Errorf("different seeds produced identical histograms")
	}
}

func TestEngine_TemporalFactorFollowsClock(t *testing.T) {
	e := newTestEngine(7)
	e.SetClock(FixedClock(time.UnixMilli(1234)))
	res := e.Simulate("test wish", 50)

	if math.Abs(res.Parameters.TemporalFactor-1.034) > 1e-12 {
		t.Errorf("TemporalFactor = %f, want 1.034", res.Parameters.TemporalFactor)
	}
}

func TestEngine_LowIntensityStaysNearChance(t *testing.T) {
	e := newTestEngine(2024)
	runs := 100
	sum := 0.0
	for i := 0; i < runs; i++ {
		res := e.Simulate("test wish", 1)
		if res.CoherenceLabel != "Low" {
			t.Fatalf("run %d: coherence %q, want Low", i, res.CoherenceLabel)
		}
		if res.Parameters.MixtureWeight > 0.02 {
			t.Fatalf("run %d: mixture weight %f, want near its minimum", i, res.Parameters.MixtureWeight)
		}
		sum += res.FavorablePercent
	}

	mean := sum / float64(runs)
	if math.Abs(mean-50) > 5 {
		t.Errorf("mean favorable percent %.2f, want within 5 points of 50", mean)
	}
}

func TestEngine_MaxIntensityFavorsOutcome(t *testing.T) {
	e := newTestEngine(99)
	runs := 100
	sum := 0.0
	for i := 0; i < runs; i++ {
		res := e.Simulate("test wish", 100)
		if res.CoherenceLabel != "High" {
			t.Fatalf("run %d: coherence %q, want High", i, res.CoherenceLabel)
		}
		if res.Parameters.MixtureWeight < 0.8 {
			t.Fatalf("run %d: mixture weight %f, want near 0.95", i, res.Parameters.MixtureWeight)
		}
		sum += res.FavorablePercent
	}

	if mean := sum / float64(runs); mean <= 70 {
		t.Errorf("mean favorable percent %.2f, want > 70", mean)
	}
}

func TestEngine_HighIntensityDominantPeakIsInfluenced(t *testing.T) {
	res := newTestEngine(42).Simulate("test wish", 100)

	if res.DominantPeak <= 75 {
		t.Errorf("DominantPeak = %d, want > 75", res.DominantPeak)
	}
	if len(res.Peaks) == 0 || res.Peaks[0].Type != PeakInfluenced {
		t.Errorf("tallest peak = %+v, want type %q", res.Peaks, PeakInfluenced)
	}
	for i := 1; i < len(res.Peaks); i++ {
		if res.Peaks[i].Height > res.Peaks[i-1].Height {
			t.Errorf("peaks not sorted by height: %+v", res.Peaks)
		}
	}
}

func TestEngine_BaselineVariance(t *testing.T) {
	want := 10000.0 * 25 / (100 * 11)

	e := newTestEngine(5)
	e.UseAnalyticBaseline(true)
	res := e.Simulate("test wish", 50)
	if math.Abs(res.BaselineVariance-want) > 1e-9 {
		t.Errorf("analytic BaselineVariance = %f, want %f", res.BaselineVariance, want)
	}
	if math.Abs(res.VarianceRatio-res.TrialVariance/want) > 1e-9 {
		t.Errorf("VarianceRatio = %f, want %f", res.VarianceRatio, res.TrialVariance/want)
	}

	sampled := newTestEngine(5).Simulate("test wish", 50)
	if math.Abs(sampled.BaselineVariance-want) > 40 {
		t.Errorf("sampled BaselineVariance = %f, want close to %f", sampled.BaselineVariance, want)
	}
}

func TestEngine_WeightedModel(t *testing.T) {
	e := newTestEngine(11)
	res := e.Run(ModelWeighted, "test wish", 50)

	if res.Model != ModelWeighted {
		t.Errorf("Model = %q, want %q", res.Model, ModelWeighted)
	}
	if res.FavorablePercent < 90 {
		t.Errorf("FavorablePercent = %.1f, want > 90 at intensity 50", res.FavorablePercent)
	}
	if res.Histogram[0]+res.Histogram[99] != NumTrials {
		t.Errorf("weighted trials should land only in the edge buckets, got %d", res.Histogram[0]+res.Histogram[99])
	}
	if res.DominantPeak != 50 || len(res.Peaks) != 0 {
		t.Errorf("edge-only histogram should have no peaks, got %+v", res.Peaks)
	}
	if res.Parameters.EntropyFactor != EntropyFactor("test wish") {
		t.Errorf("EntropyFactor = %f, want %f", res.Parameters.EntropyFactor, EntropyFactor("test wish"))
	}
}

func TestEngine_RunDefaultsToMixture(t *testing.T) {
	res := newTestEngine(3).Run(Model(""), "test wish", 10)
	if res.Model != ModelMixture {
		t.Errorf("Model = %q, want %q", res.Model, ModelMixture)
	}
}

func TestEngine_ReplayIgnoresWallClock(t *testing.T) {
	a := NewEngine()
	a.Replay(42)
	first := a.Simulate("a quiet week", 80)

	time.Sleep(7 * time.Millisecond)

	b := NewEngine()
	b.Replay(42)
	second := b.Simulate("a quiet week", 80)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("replayed runs differ: fav %d vs %d, weight %v vs %v",
			first.FavorableCount, second.FavorableCount,
			first.Parameters.MixtureWeight, second.Parameters.MixtureWeight)
	}
	if want := TemporalFactor(time.UnixMilli(42)); first.Parameters.TemporalFactor != want {
		t.Errorf("TemporalFactor = %v, want %v", first.Parameters.TemporalFactor, want)
	}
}
