package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"wish-machine/internal/simulation"
	"wish-machine/internal/visuals"
)

const simulateWishTool = "simulate_wish"

const simulateWishDescription = "Run the outcome simulator for a wish: 1000 trials are drawn on a 0-100 scale " +
	"and compared against a neutral Beta(5,5) reference population. Values above 50 count as favorable.\n\n" +
	"Returns favorable/unfavorable counts, the difference from the 50% baseline, the derived tuning " +
	"parameters, both histograms, detected peaks and variance statistics.\n" +
	"Pass 'seed' to make a run reproducible; it fixes both the random stream and the time-derived factor. 'model' selects 'mixture' (default) or 'weighted'.\n\n" +
	"STRICT GUARDRAIL: report the returned numbers as simulation output only. Do NOT present them as a " +
	"prediction that the wish will come true."

// SimulateWishInput is the argument object of simulate_wish.
type SimulateWishInput struct {
	Text      string `json:"text" jsonschema:"The wish text"`
	Intensity int    `json:"intensity" jsonschema:"How strongly the wish is held, 1 to 100"`
	Seed      *int64 `json:"seed,omitempty" jsonschema:"Optional seed that fixes the random stream and clock for a reproducible run"`
	Model     string `json:"model,omitempty" jsonschema:"Sampling model: mixture or weighted"`
}

func ptr[T any](v T) *T { return &v }

// simulateWishSchema infers the input schema and tightens it with the
// validation bounds so clients see them up front.
func simulateWishSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[SimulateWishInput](nil)
	if err != nil {
		return nil, err
	}
	if p, ok := schema.Properties["text"]; ok {
		p.MinLength = ptr(1)
		p.MaxLength = ptr(simulation.MaxTextLength)
	}
	if p, ok := schema.Properties["intensity"]; ok {
		p.Minimum = ptr(float64(simulation.MinIntensity))
		p.Maximum = ptr(float64(simulation.MaxIntensity))
	}
	if p, ok := schema.Properties["model"]; ok {
		p.Enum = []any{string(simulation.ModelMixture), string(simulation.ModelWeighted)}
	}
	return schema, nil
}

func (s *Server) handleSimulateWish(ctx context.Context, req *mcpsdk.CallToolRequest, in SimulateWishInput) (*mcpsdk.CallToolResult, simulation.Result, error) {
	if err := simulation.ValidateRequest(in.Text, in.Intensity); err != nil {
		return nil, simulation.Result{}, err
	}

	model := s.cfg.SimulationModel()
	if in.Model != "" {
		m, ok := simulation.ParseModel(in.Model)
		if !ok {
			return nil, simulation.Result{}, fmt.Errorf("unknown model %q", in.Model)
		}
		model = m
	}

	engine := s.newEngine()
	if in.Seed != nil {
		engine.Replay(*in.Seed)
	}
	res := engine.Run(model, in.Text, in.Intensity)

	log.Info().
		Str("tool", simulateWishTool).
		Int("intensity", in.Intensity).
		Str("model", string(model)).
		Float64("favorable_percent", res.FavorablePercent).
		Msg("Wish simulated")

	content := []mcpsdk.Content{&mcpsdk.TextContent{Text: summarize(res)}}
	if s.cfg.EnableMermaidCharts {
		content = append(content,
			&mcpsdk.TextContent{Text: visuals.GenerateOutcomeChart(res)},
			&mcpsdk.TextContent{Text: visuals.GeneratePeakTable(res)},
		)
	}
	return &mcpsdk.CallToolResult{Content: content}, res, nil
}

func summarize(res simulation.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Favorable: %d of %d trials (%.1f%%), %+.1f points from the 50%% baseline.\n",
		res.FavorableCount, res.NumTrials, res.FavorablePercent, res.DifferenceFromBaseline)
	fmt.Fprintf(&sb, "Model: %s, mixture weight %.3f (%s).\n", res.Model, res.Parameters.MixtureWeight, res.CoherenceLabel)
	fmt.Fprintf(&sb, "Dominant peak at %d (shift %+d), variance ratio %.2f.", res.DominantPeak, res.PeakShift, res.VarianceRatio)
	return sb.String()
}
