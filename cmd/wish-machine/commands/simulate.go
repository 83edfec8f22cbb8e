package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wish-machine/internal/simulation"
	"wish-machine/internal/stats"
	"wish-machine/internal/visuals"
)

type simulateOptions struct {
	text      string
	intensity int
	seed      int64
	seeded    bool
	runs      int
	model     string
	chart     bool
	json      bool
}

var simOpts simulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the outcome simulation from the command line",
	Long: `Run one or more simulations for a wish and print the outcome.

Examples:
  wish-machine simulate --text "a new job" --intensity 80
  wish-machine simulate --text "a new job" --intensity 80 --seed 42 --chart
  wish-machine simulate --text "a new job" --runs 200 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		simOpts.seeded = cmd.Flags().Changed("seed")
		if simOpts.model == "" {
			simOpts.model = cfg.Model
		}
		return runSimulate(cmd.Context(), cmd.OutOrStdout(), simOpts, cfg.AnalyticBaseline)
	},
}

// RunSummary aggregates the favorable percentages of repeated runs.
type RunSummary struct {
	Runs              int     `json:"runs"`
	MeanFavorable     float64 `json:"mean_favorable_percent"`
	MedianFavorable   float64 `json:"median_favorable_percent"`
	StdDevFavorable   float64 `json:"stddev_favorable_percent"`
	P05Favorable      float64 `json:"p05_favorable_percent"`
	P95Favorable      float64 `json:"p95_favorable_percent"`
	MeanMixtureWeight float64 `json:"mean_mixture_weight"`

	Limits stats.ProcessLimits `json:"limits"`
}

func runSimulate(ctx context.Context, out io.Writer, opts simulateOptions, analytic bool) error {
	if err := simulation.ValidateRequest(opts.text, opts.intensity); err != nil {
		return err
	}
	model, ok := simulation.ParseModel(opts.model)
	if !ok {
		return fmt.Errorf("unknown model %q", opts.model)
	}
	if opts.runs < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", opts.runs)
	}

	results, err := runBatch(ctx, opts, model, analytic)
	if err != nil {
		return err
	}

	if len(results) == 1 {
		res := results[0]
		if opts.json {
			return writeIndented(out, res)
		}
		fmt.Fprintf(out, "Wish:        %s\n", res.Text)
		fmt.Fprintf(out, "Intensity:   %d\n", res.Intensity)
		fmt.Fprintf(out, "Model:       %s (%s)\n", res.Model, res.CoherenceLabel)
		fmt.Fprintf(out, "Favorable:   %d / %d (%.1f%%, %+.1f vs baseline)\n",
			res.FavorableCount, res.NumTrials, res.FavorablePercent, res.DifferenceFromBaseline)
		fmt.Fprintf(out, "Peak:        %d (shift %+d), separation %.3f\n", res.DominantPeak, res.PeakShift, res.SeparationScore)
		fmt.Fprintf(out, "Variance:    %.2f vs %.2f baseline (ratio %.2f)\n", res.TrialVariance, res.BaselineVariance, res.VarianceRatio)
		if opts.chart {
			fmt.Fprintln(out)
			fmt.Fprintln(out, visuals.GenerateOutcomeChart(res))
			fmt.Fprintln(out, visuals.GeneratePeakTable(res))
		}
		return nil
	}

	summary := summarizeRuns(results)
	if opts.json {
		return writeIndented(out, summary)
	}
	fmt.Fprintf(out, "Runs:        %d\n", summary.Runs)
	fmt.Fprintf(out, "Favorable:   mean %.2f%%, median %.2f%%, sd %.2f\n", summary.MeanFavorable, summary.MedianFavorable, summary.StdDevFavorable)
	fmt.Fprintf(out, "Range:       p05 %.2f%%, p95 %.2f%%\n", summary.P05Favorable, summary.P95Favorable)
	fmt.Fprintf(out, "Weight:      mean %.3f\n", summary.MeanMixtureWeight)
	fmt.Fprintf(out, "Limits:      %.2f%% to %.2f%%, %d signals\n", summary.Limits.Lower, summary.Limits.Upper, len(summary.Limits.Signals))
	return nil
}

// runBatch runs opts.runs independent simulations in parallel. Seeded batches
// replay seed+i for run i, pinning both the random stream and the clock.
func runBatch(ctx context.Context, opts simulateOptions, model simulation.Model, analytic bool) ([]simulation.Result, error) {
	results := make([]simulation.Result, opts.runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e := simulation.NewEngine()
			e.UseAnalyticBaseline(analytic)
			if opts.seeded {
				e.Replay(opts.seed + int64(i))
			}
			results[i] = e.Run(model, opts.text, opts.intensity)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarizeRuns(results []simulation.Result) RunSummary {
	favorable := make([]float64, len(results))
	weights := make([]float64, len(results))
	for i, r := range results {
		favorable[i] = r.FavorablePercent
		weights[i] = r.Parameters.MixtureWeight
	}
	return RunSummary{
		Runs:              len(results),
		MeanFavorable:     stats.CalculateMean(favorable),
		MedianFavorable:   stats.CalculateMedianContinuous(favorable),
		StdDevFavorable:   stats.CalculateStdDev(favorable),
		P05Favorable:      stats.CalculatePercentile(favorable, 0.05),
		P95Favorable:      stats.CalculatePercentile(favorable, 0.95),
		MeanMixtureWeight: stats.CalculateMean(weights),
		Limits:            stats.CalculateProcessLimits(favorable),
	}
}

func writeIndented(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	simulateCmd.Flags().StringVar(&simOpts.text, "text", "", "the wish text")
	simulateCmd.Flags().IntVar(&simOpts.intensity, "intensity", 50, "wish intensity, 1 to 100")
	simulateCmd.Flags().Int64Var(&simOpts.seed, "seed", 0, "replay seed: fixes the random stream and the clock for a reproducible run")
	simulateCmd.Flags().IntVar(&simOpts.runs, "runs", 1, "number of independent runs to aggregate")
	simulateCmd.Flags().StringVar(&simOpts.model, "model", "", "sampling model: mixture or weighted (default WM_MODEL)")
	simulateCmd.Flags().BoolVar(&simOpts.chart, "chart", false, "print Mermaid charts for a single run")
	simulateCmd.Flags().BoolVar(&simOpts.json, "json", false, "output as JSON")
	_ = simulateCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(simulateCmd)
}
