package features

import (
	"gonum.org/v1/gonum/stat"

	"github.com/maastricht-university/voicecheck/audio"
	"github.com/maastricht-university/voicecheck/dsp"
)

// EnergyEstimator averages frame RMS over frames louder than NoiseFloor.
type EnergyEstimator struct {
	FrameLength int
	HopLength   int
	NoiseFloor  float64
}

func DefaultEnergyEstimator() EnergyEstimator {
	return EnergyEstimator{FrameLength: 2048, HopLength: 512, NoiseFloor: 0.01}
}

// Estimate is 0 when every frame falls under the noise floor.
func (e EnergyEstimator) Estimate(w audio.Waveform) float64 {
	var loud []float64
	for _, fr := range dsp.Frames(w.Samples, e.FrameLength, e.HopLength) {
		if r := dsp.RMS(fr); r >= e.NoiseFloor {
			loud = append(loud, r)
		}
	}
	if len(loud) == 0 {
		return 0
	}
	return stat.Mean(loud, nil)
}
