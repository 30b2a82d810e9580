// Package features extracts pitch, energy and speaking rate from a waveform.
package features

import (
	"sync"

	"github.com/maastricht-university/voicecheck/audio"
)

// FeatureSet is the result of one extraction. Pitch is nil when no frame
// was voiced.
type FeatureSet struct {
	Pitch        *float64
	Energy       float64
	SpeakingRate float64
}

type Extractor struct {
	Pitch  PitchEstimator
	Energy EnergyEstimator
	Rate   RateEstimator
}

func DefaultExtractor() Extractor {
	return Extractor{
		Pitch:  DefaultPitchEstimator(),
		Energy: DefaultEnergyEstimator(),
		Rate:   DefaultRateEstimator(),
	}
}

// Extract runs the three estimators concurrently over the same waveform.
// The estimators only read w.
func (e Extractor) Extract(w audio.Waveform) FeatureSet {
	var (
		fs FeatureSet
		wg sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		fs.Pitch = e.Pitch.Estimate(w)
	}()
	go func() {
		defer wg.Done()
		fs.Energy = e.Energy.Estimate(w)
	}()
	go func() {
		defer wg.Done()
		fs.SpeakingRate = e.Rate.Estimate(w)
	}()
	wg.Wait()
	return fs
}
