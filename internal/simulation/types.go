package simulation

// NumTrials is the number of draws performed by every simulation run.
const NumTrials = 1000

// Model selects the sampling procedure used by the engine.
type Model string

const (
	// ModelMixture draws each trial from a two-mode Beta mixture.
	ModelMixture Model = "mixture"
	// ModelWeighted draws each trial as a two-state weighted choice.
	ModelWeighted Model = "weighted"
)

// ParseModel maps a user supplied model name to a Model. Empty selects the mixture.
func ParseModel(name string) (Model, bool) {
	switch Model(name) {
	case "", ModelMixture:
		return ModelMixture, true
	case ModelWeighted:
		return ModelWeighted, true
	}
	return "", false
}

// Parameters are the tuning values derived once per run.
type Parameters struct {
	EntropyFactor      float64 `json:"entropy_factor"`
	NoiseFactor        float64 `json:"noise_factor"`
	TemporalFactor     float64 `json:"temporal_factor"`
	PreferenceStrength float64 `json:"preference_strength"`
	MixtureWeight      float64 `json:"mixture_weight"`
}

// PeakType classifies a histogram peak by where it sits on the 0-100 scale.
type PeakType string

const (
	PeakInfluenced PeakType = "consciousness"
	PeakBaseline   PeakType = "baseline"
	PeakTransition PeakType = "transition"
)

// Peak is a local maximum of the trial histogram.
type Peak struct {
	Position int      `json:"position"`
	Height   int      `json:"height"`
	Type     PeakType `json:"type"`
}

// Result is the full report of one simulation run.
type Result struct {
	Text      string `json:"wish"`
	Intensity int    `json:"intensity"`
	Model     Model  `json:"model"`
	NumTrials int    `json:"num_trials"`

	FavorableCount         int     `json:"favorable_count"`
	UnfavorableCount       int     `json:"unfavorable_count"`
	FavorablePercent       float64 `json:"favorable_percent"`
	UnfavorablePercent     float64 `json:"unfavorable_percent"`
	DifferenceFromBaseline float64 `json:"difference_from_baseline"`

	Parameters Parameters `json:"parameters"`

	Histogram         Histogram `json:"histogram"`
	BaselineHistogram Histogram `json:"baseline_histogram"`

	Peaks           []Peak  `json:"peaks"`
	DominantPeak    int     `json:"dominant_peak"`
	PeakShift       int     `json:"peak_shift"`
	SeparationScore float64 `json:"separation_score"`

	TrialVariance    float64 `json:"trial_variance"`
	BaselineVariance float64 `json:"baseline_variance"`
	VarianceRatio    float64 `json:"variance_ratio"`

	CoherenceLabel string `json:"coherence_label"`
}
