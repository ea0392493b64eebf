package health

import "github.com/smartfactory/sentinel/pkg/types"

// Default baselines and penalty weights for the health formula.
const (
	DefaultBaseTemperature = 70.0
	DefaultBaseVibration   = 0.5

	DefaultTempWeight = 2.2
	DefaultVibWeight  = 15.0
)

// Thresholds that map a score to a tier.
const (
	ThresholdHealthy = 90.0
	ThresholdWarning = 60.0
)

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Scorer holds the baselines and weights of the health formula.
// The zero value is not useful; start from DefaultScorer.
type Scorer struct {
	// BaseTemperature is the nominal temperature of a machine, in degrees.
	BaseTemperature float64

	// BaseVibration is the nominal vibration level of a machine.
	BaseVibration float64

	// TempWeight is the score penalty per degree above baseline.
	TempWeight float64

	// VibWeight is the score penalty per vibration unit above baseline.
	VibWeight float64
}

// DefaultScorer returns a Scorer with the standard baselines and weights.
func DefaultScorer() Scorer {
	return Scorer{
		BaseTemperature: DefaultBaseTemperature,
		BaseVibration:   DefaultBaseVibration,
		TempWeight:      DefaultTempWeight,
		VibWeight:       DefaultVibWeight,
	}
}

// Score computes the health score for one reading.
//
//	raw   = 100 - (temperature - base_t)*temp_weight - (vibration - base_v)*vib_weight
//	score = clamp(raw, 0, 100)
//
// Readings below baseline would push raw above 100; they are clamped too.
func (s Scorer) Score(temperature, vibration float64) float64 {
	raw := MaxScore -
		(temperature-s.BaseTemperature)*s.TempWeight -
		(vibration-s.BaseVibration)*s.VibWeight
	return clamp(raw, MinScore, MaxScore)
}

// Score computes the health score with the default baselines and weights.
func Score(temperature, vibration float64) float64 {
	return DefaultScorer().Score(temperature, vibration)
}

// TierOf maps a health score to its tier. Intervals are half-open, so a score
// of exactly 60 is a warning and exactly 90 is healthy.
func TierOf(score float64) types.Tier {
	switch {
	case score >= ThresholdHealthy:
		return types.TierHealthy
	case score >= ThresholdWarning:
		return types.TierWarning
	default:
		return types.TierCritical
	}
}

// clamp restricts v to the range [lo, hi]. NaN is treated as the lower bound.
func clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
