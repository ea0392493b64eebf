package telemetry

import (
	"math/rand/v2"

	"github.com/smartfactory/sentinel/pkg/types"
	"github.com/smartfactory/sentinel/server/internal/health"
)

// NoiseSource yields standard normal samples (mean 0, stddev 1).
// *rand.Rand from math/rand/v2 satisfies it.
type NoiseSource interface {
	NormFloat64() float64
}

// NewNoise returns a NoiseSource seeded deterministically from seed.
// Two sources built from the same seed produce identical sample streams.
func NewNoise(seed uint64) NoiseSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate produces one Reading per (machine, hour), ordered by machine_id
// then hour, with health scores already computed.
//
// noise may be nil only when p.Noiseless() is true. Parameters are validated
// before anything is generated; on error no readings are returned.
func Generate(p Params, noise NoiseSource) ([]types.Reading, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if noise == nil && !p.Noiseless() {
		return nil, &ParamError{Field: "noise", Reason: "a noise source is required when noise stddev is non-zero"}
	}

	scorer := health.DefaultScorer()
	scorer.BaseTemperature = p.BaseTemperature
	scorer.BaseVibration = p.BaseVibration

	out := make([]types.Reading, 0, p.NumMachines*p.Hours)
	for _, id := range p.MachineIDs() {
		for hour := 0; hour < p.Hours; hour++ {
			temp := p.BaseTemperature + sample(noise, p.TemperatureNoise)
			vib := p.BaseVibration + sample(noise, p.VibrationNoise)

			if id == p.CriticalMachineID && hour >= p.DegradeStartHour {
				elapsed := float64(hour - p.DegradeStartHour)
				temp += elapsed * p.TemperatureRate
				vib += elapsed * p.VibrationRate
			}

			out = append(out, types.Reading{
				MachineID:   id,
				Hour:        hour,
				Temperature: temp,
				Vibration:   vib,
				HealthScore: scorer.Score(temp, vib),
			})
		}
	}
	return out, nil
}

// sample draws one zero-mean gaussian value with the given stddev.
// A zero stddev never touches the source, so noiseless runs are exact.
func sample(noise NoiseSource, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return noise.NormFloat64() * stddev
}
