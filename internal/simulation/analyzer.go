package simulation

import (
	"math"
	"sort"
)

const (
	// minPeakHeight is the height a local maximum must exceed (1% of trials).
	minPeakHeight = 10
	// neutralPosition is the unbiased centre of the 0-100 scale.
	neutralPosition = 50
)

// ClassifyPeak labels a peak position.
func ClassifyPeak(position int) PeakType {
	switch {
	case position > 75:
		return PeakInfluenced
	case position >= 40 && position <= 60:
		return PeakBaseline
	default:
		return PeakTransition
	}
}

// DetectPeaks finds strict local maxima taller than 1% of trials, ignoring the
// edge buckets, sorted tallest first. Equal heights keep ascending position order.
func DetectPeaks(h Histogram) []Peak {
	peaks := make([]Peak, 0)
	for i := 1; i < Buckets-1; i++ {
		if h[i] > h[i-1] && h[i] > h[i+1] && h[i] > minPeakHeight {
			peaks = append(peaks, Peak{
				Position: i,
				Height:   h[i],
				Type:     ClassifyPeak(i),
			})
		}
	}

	sort.SliceStable(peaks, func(a, b int) bool {
		return peaks[a].Height > peaks[b].Height
	})
	return peaks
}

// DominantPeak returns the position of the tallest peak, or 50 when there is none.
func DominantPeak(peaks []Peak) int {
	if len(peaks) == 0 {
		return neutralPosition
	}
	return peaks[0].Position
}

// SeparationScore measures how far apart the two tallest peaks are, in [0, 1].
func SeparationScore(peaks []Peak) float64 {
	if len(peaks) < 2 {
		return 0
	}
	d := math.Abs(float64(peaks[0].Position-peaks[1].Position)) / 50
	return math.Min(1, d)
}

// VarianceRatio compares the trial spread against the reference spread.
func VarianceRatio(trial, baseline float64) float64 {
	if baseline == 0 {
		return 1.0
	}
	return trial / baseline
}
