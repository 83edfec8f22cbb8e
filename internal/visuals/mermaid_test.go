package visuals

import (
	"strings"
	"testing"

	"wish-machine/internal/simulation"
)

func TestGenerateOutcomeChart(t *testing.T) {
	var h simulation.Histogram
	h[5] = 100
	h[55] = 300
	h[95] = 600

	res := simulation.Result{
		NumTrials:         1000,
		Intensity:         80,
		Histogram:         h,
		BaselineHistogram: simulation.NewBaselineHistogram(1000),
	}

	chart := GenerateOutcomeChart(res)
	if !strings.HasPrefix(chart, "```mermaid\nxychart-beta\n") {
		t.Fatalf("unexpected chart header:\n%s", chart)
	}
	if !strings.Contains(chart, "bar [100, 0, 0, 0, 0, 300, 0, 0, 0, 600]") {
		t.Errorf("bars not rebinned into deciles:\n%s", chart)
	}
	if !strings.Contains(chart, "\"90-99\"") {
		t.Errorf("missing last label:\n%s", chart)
	}
	if !strings.Contains(chart, "y-axis \"Trials\" 0 --> 720") {
		t.Errorf("unexpected y-axis scale:\n%s", chart)
	}
}

func TestGenerateOutcomeChart_Empty(t *testing.T) {
	if got := GenerateOutcomeChart(simulation.Result{}); got != "" {
		t.Errorf("expected empty chart for empty result, got %q", got)
	}
}

func TestGeneratePeakTable(t *testing.T) {
	res := simulation.Result{
		DominantPeak: 93,
		Peaks: []simulation.Peak{
			{Position: 93, Height: 120, Type: simulation.PeakInfluenced},
			{Position: 50, Height: 22, Type: simulation.PeakBaseline},
		},
	}
	table := GeneratePeakTable(res)
	if !strings.Contains(table, "| 93 | 120 | consciousness |") {
		t.Errorf("missing dominant row:\n%s", table)
	}
	if !strings.Contains(table, "| 50 | 22 | baseline |") {
		t.Errorf("missing baseline row:\n%s", table)
	}

	empty := GeneratePeakTable(simulation.Result{DominantPeak: 50})
	if !strings.Contains(empty, "none detected") {
		t.Errorf("expected placeholder row:\n%s", empty)
	}
}
