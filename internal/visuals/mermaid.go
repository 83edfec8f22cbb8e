package visuals

import (
	"fmt"
	"math"
	"strings"

	"wish-machine/internal/simulation"
)

// binWidth groups the 100 histogram buckets into chart bars.
const binWidth = 10

// GenerateOutcomeChart creates a Mermaid xychart-beta comparing the trial
// distribution (bars) against the reference baseline curve (line).
func GenerateOutcomeChart(result simulation.Result) string {
	if result.NumTrials == 0 {
		return ""
	}

	trials := rebin(result.Histogram)
	baseline := rebin(result.BaselineHistogram)

	var labels []string
	var bars []string
	var line []string

	maxVal := 0
	for i := range trials {
		lo := i * binWidth
		labels = append(labels, fmt.Sprintf("\"%d-%d\"", lo, lo+binWidth-1))
		bars = append(bars, fmt.Sprintf("%d", trials[i]))
		line = append(line, fmt.Sprintf("%d", baseline[i]))
		if trials[i] > maxVal {
			maxVal = trials[i]
		}
		if baseline[i] > maxVal {
			maxVal = baseline[i]
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Outcome Distribution (%d trials, intensity %d)\"\n", result.NumTrials, result.Intensity))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Trials\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(bars, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(line, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePeakTable renders the detected peaks as a markdown table.
func GeneratePeakTable(result simulation.Result) string {
	var sb strings.Builder
	sb.WriteString("| Position | Height | Type |\n")
	sb.WriteString("|---:|---:|---|\n")
	if len(result.Peaks) == 0 {
		sb.WriteString(fmt.Sprintf("| %d | - | none detected |\n", result.DominantPeak))
		return sb.String()
	}
	for _, p := range result.Peaks {
		sb.WriteString(fmt.Sprintf("| %d | %d | %s |\n", p.Position, p.Height, p.Type))
	}
	return sb.String()
}

func rebin(h simulation.Histogram) []int {
	out := make([]int, simulation.Buckets/binWidth)
	for i, c := range h {
		out[i/binWidth] += c
	}
	return out
}
