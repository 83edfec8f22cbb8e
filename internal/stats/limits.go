package stats

import "math"

// individualsScale is the XmR scaling constant for individual values.
const individualsScale = 2.66

// shiftRun is the number of consecutive runs on one side of the centre line
// that counts as a sustained shift.
const shiftRun = 8

// SignalKind names a special-cause pattern in a sequence of runs.
type SignalKind string

const (
	SignalAbove SignalKind = "above_limit"
	SignalBelow SignalKind = "below_limit"
	SignalShift SignalKind = "shift"
)

// RunSignal marks a run that falls outside the natural variation of the batch.
type RunSignal struct {
	Run  int        `json:"run"`
	Kind SignalKind `json:"kind"`
}

// ProcessLimits is an individuals and moving range summary of a series of
// percentages. Limits are clamped to the 0-100 scale.
type ProcessLimits struct {
	Centre       float64     `json:"centre"`
	AvgMovingRng float64     `json:"average_moving_range"`
	Upper        float64     `json:"upper_limit"`
	Lower        float64     `json:"lower_limit"`
	Signals      []RunSignal `json:"signals,omitempty"`
}

// CalculateProcessLimits computes natural process limits for values given in
// run order and flags runs beyond them, plus sustained shifts.
func CalculateProcessLimits(values []float64) ProcessLimits {
	if len(values) == 0 {
		return ProcessLimits{}
	}

	pl := ProcessLimits{Centre: CalculateMean(values)}
	if len(values) > 1 {
		sum := 0.0
		for i := 1; i < len(values); i++ {
			sum += math.Abs(values[i] - values[i-1])
		}
		pl.AvgMovingRng = sum / float64(len(values)-1)
	}
	pl.Upper = math.Min(100, pl.Centre+individualsScale*pl.AvgMovingRng)
	pl.Lower = math.Max(0, pl.Centre-individualsScale*pl.AvgMovingRng)

	for i, v := range values {
		switch {
		case v > pl.Upper:
			pl.Signals = append(pl.Signals, RunSignal{Run: i, Kind: SignalAbove})
		case v < pl.Lower:
			pl.Signals = append(pl.Signals, RunSignal{Run: i, Kind: SignalBelow})
		}
	}

	side, count := 0, 0
	for i, v := range values {
		s := 0
		if v > pl.Centre {
			s = 1
		} else if v < pl.Centre {
			s = -1
		}
		if s != 0 && s == side {
			count++
		} else {
			side, count = s, 1
		}
		if side != 0 && count == shiftRun {
			pl.Signals = append(pl.Signals, RunSignal{Run: i, Kind: SignalShift})
		}
	}
	return pl
}
