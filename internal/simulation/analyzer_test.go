package simulation

import (
	"math"
	"testing"
)

func TestDetectPeaks_FlatHistogram(t *testing.T) {
	var h Histogram
	for i := range h {
		h[i] = 10
	}

	peaks := DetectPeaks(h)
	if len(peaks) != 0 {
		t.Fatalf("expected no peaks on a flat histogram, got %+v", peaks)
	}
	if got := DominantPeak(peaks); got != 50 {
		t.Errorf("DominantPeak() = %d, want 50", got)
	}
	if got := SeparationScore(peaks); got != 0 {
		t.Errorf("SeparationScore() = %v, want 0", got)
	}
}

func TestDetectPeaks_ThresholdAndEdges(t *testing.T) {
	var h Histogram
	h[0] = 500  // edge, never a peak
	h[99] = 400 // edge, never a peak
	h[30] = 10  // local max but not above the threshold
	h[50] = 11
	h[90] = 80

	peaks := DetectPeaks(h)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %+v", peaks)
	}
	if peaks[0] != (Peak{Position: 90, Height: 80, Type: PeakInfluenced}) {
		t.Errorf("tallest peak = %+v", peaks[0])
	}
	if peaks[1] != (Peak{Position: 50, Height: 11, Type: PeakBaseline}) {
		t.Errorf("second peak = %+v", peaks[1])
	}
	if got := DominantPeak(peaks); got != 90 {
		t.Errorf("DominantPeak() = %d, want 90", got)
	}
	if got := SeparationScore(peaks); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("SeparationScore() = %v, want 0.8", got)
	}
}

func TestDetectPeaks_PlateauIsNotAPeak(t *testing.T) {
	var h Histogram
	h[60] = 40
	h[61] = 40

	if peaks := DetectPeaks(h); len(peaks) != 0 {
		t.Errorf("plateau should not produce strict local maxima, got %+v", peaks)
	}
}

func TestDetectPeaks_TiesKeepPositionOrder(t *testing.T) {
	var h Histogram
	h[20] = 30
	h[80] = 30
	h[45] = 30

	peaks := DetectPeaks(h)
	if len(peaks) != 3 {
		t.Fatalf("expected 3 peaks, got %+v", peaks)
	}
	want := []int{20, 45, 80}
	for i, p := range peaks {
		if p.Position != want[i] {
			t.Errorf("peak %d position = %d, want %d", i, p.Position, want[i])
		}
	}
}

func TestSeparationScore_Capped(t *testing.T) {
	peaks := []Peak{{Position: 95, Height: 300}, {Position: 2, Height: 40}}
	if got := SeparationScore(peaks); got != 1.0 {
		t.Errorf("SeparationScore() = %v, want 1.0", got)
	}
	if got := SeparationScore(peaks[:1]); got != 0 {
		t.Errorf("SeparationScore(single) = %v, want 0", got)
	}
}

func TestClassifyPeak(t *testing.T) {
	tests := []struct {
		position int
		expected PeakType
	}{
		{76, PeakInfluenced},
		{75, PeakTransition},
		{61, PeakTransition},
		{60, PeakBaseline},
		{40, PeakBaseline},
		{39, PeakTransition},
		{1, PeakTransition},
	}
	for _, tt := range tests {
		if got := ClassifyPeak(tt.position); got != tt.expected {
			t.Errorf("ClassifyPeak(%d) = %q, want %q", tt.position, got, tt.expected)
		}
	}
}

func TestVarianceRatio_ZeroBaseline(t *testing.T) {
	if got := VarianceRatio(123.4, 0); got != 1.0 {
		t.Errorf("VarianceRatio(x, 0) = %v, want 1.0", got)
	}
	if got := VarianceRatio(50, 200); got != 0.25 {
		t.Errorf("VarianceRatio(50, 200) = %v, want 0.25", got)
	}
}
