package stats

import (
	"math"
	"testing"
)

func TestCalculateProcessLimits(t *testing.T) {
	values := []float64{50, 52, 48, 50, 52, 48}
	pl := CalculateProcessLimits(values)

	if pl.Centre != 50 {
		t.Errorf("Centre = %v, want 50", pl.Centre)
	}
	// Moving ranges: 2, 4, 2, 2, 4.
	if math.Abs(pl.AvgMovingRng-2.8) > 1e-9 {
		t.Errorf("AvgMovingRng = %v, want 2.8", pl.AvgMovingRng)
	}
	if math.Abs(pl.Upper-(50+2.66*2.8)) > 1e-9 || math.Abs(pl.Lower-(50-2.66*2.8)) > 1e-9 {
		t.Errorf("limits = [%v, %v]", pl.Lower, pl.Upper)
	}
	if len(pl.Signals) != 0 {
		t.Errorf("Signals = %v, want none", pl.Signals)
	}
}

func TestCalculateProcessLimits_Signals(t *testing.T) {
	values := []float64{50, 51, 49, 50, 51, 49, 50, 51, 49, 50, 95}
	pl := CalculateProcessLimits(values)

	found := false
	for _, s := range pl.Signals {
		if s.Run == 10 && s.Kind == SignalAbove {
			found = true
		}
	}
	if !found {
		t.Errorf("Signals = %v, want an above_limit signal at run 10", pl.Signals)
	}

	shifted := []float64{40, 40, 40, 40, 60, 60, 60, 60, 60, 60, 60, 60}
	pl = CalculateProcessLimits(shifted)
	shift := false
	for _, s := range pl.Signals {
		if s.Kind == SignalShift && s.Run == 11 {
			shift = true
		}
	}
	if !shift {
		t.Errorf("Signals = %v, want a shift at run 11", pl.Signals)
	}
}

func TestCalculateProcessLimits_Clamped(t *testing.T) {
	pl := CalculateProcessLimits([]float64{0, 100, 0, 100})
	if pl.Upper != 100 || pl.Lower != 0 {
		t.Errorf("limits = [%v, %v], want [0, 100]", pl.Lower, pl.Upper)
	}
	if got := CalculateProcessLimits(nil); got.Centre != 0 || got.Signals != nil {
		t.Errorf("empty = %+v", got)
	}
}
