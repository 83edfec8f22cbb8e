package simulation

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"math/rand"
	"time"
)

const maxMixtureWeight = 0.95

// Clock supplies the wall-clock reading used for the temporal factor.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// EntropyFactor maps text to a stable multiplier in [0.85, 1.15).
// It depends only on the text, never on the RNG or the clock.
func EntropyFactor(text string) float64 {
	sum := md5.Sum([]byte(text))
	h := binary.BigEndian.Uint32(sum[12:16])
	return 0.85 + float64(h%300)/1000
}

// NoiseFactor draws the per-run noise multiplier uniformly from [0.8, 1.2).
func NoiseFactor(rng *rand.Rand) float64 {
	return 0.8 + rng.Float64()*0.4
}

// TemporalFactor derives a multiplier in [1.0, 1.1) from the millisecond reading of t.
func TemporalFactor(t time.Time) float64 {
	return float64(t.UnixMilli()%100)/1000 + 1.0
}

// PreferenceStrength grows with the square root of intensity.
func PreferenceStrength(intensity int, entropy float64) float64 {
	return math.Sqrt(float64(intensity)/10) * entropy
}

// MixtureWeight is the probability that a trial is drawn from the influenced
// distribution. Always within [0, 0.95].
func MixtureWeight(intensity int, noise, temporal float64) float64 {
	w := (float64(intensity) / 50 * noise * temporal) / 2
	if w > maxMixtureWeight {
		return maxMixtureWeight
	}
	if w < 0 || math.IsNaN(w) {
		return 0
	}
	return w
}

// DeriveParameters computes the Stage 1 tuning values for one run. It consumes
// exactly one RNG draw.
func DeriveParameters(text string, intensity int, rng *rand.Rand, clock Clock) Parameters {
	entropy := EntropyFactor(text)
	noise := NoiseFactor(rng)
	temporal := TemporalFactor(clock.Now())

	return Parameters{
		EntropyFactor:      entropy,
		NoiseFactor:        noise,
		TemporalFactor:     temporal,
		PreferenceStrength: PreferenceStrength(intensity, entropy),
		MixtureWeight:      MixtureWeight(intensity, noise, temporal),
	}
}

// CoherenceLabel buckets a mixture weight into a qualitative label.
func CoherenceLabel(weight float64) string {
	switch {
	case weight > 0.7:
		return "High"
	case weight > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}
