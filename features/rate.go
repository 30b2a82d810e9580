package features

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/voicecheck/audio"
	"github.com/maastricht-university/voicecheck/dsp"
)

// RateEstimator counts onset events per minute.
type RateEstimator struct {
	NFFT                int
	HopLength           int
	NMels               int
	TopDB               float64
	SmoothWindow        int
	ThresholdPercentile float64
	MinSeparation       float64 // seconds between accepted onsets
}

func DefaultRateEstimator() RateEstimator {
	return RateEstimator{
		NFFT:                2048,
		HopLength:           512,
		NMels:               128,
		TopDB:               80,
		SmoothWindow:        5,
		ThresholdPercentile: 80,
		MinSeparation:       0.08,
	}
}

func (r RateEstimator) Estimate(w audio.Waveform) float64 {
	dur := w.Duration()
	if dur <= 0 {
		return 0
	}
	env := dsp.MovingAverage(r.onsetStrength(w), r.SmoothWindow)
	n := pickOnsets(env, r.ThresholdPercentile, r.minSeparationFrames(w.SampleRate))
	return float64(n) / dur * 60
}

func (r RateEstimator) minSeparationFrames(sampleRate int) int {
	n := int(math.Floor(r.MinSeparation * float64(sampleRate) / float64(r.HopLength)))
	if n < 1 {
		n = 1
	}
	return n
}

// onsetStrength is the mean positive change of the log-mel spectrum
// between consecutive frames. Frame 0 has no predecessor and is zero.
func (r RateEstimator) onsetStrength(w audio.Waveform) []float64 {
	spec := dsp.STFT(w.Samples, r.NFFT, r.HopLength)
	if len(spec) == 0 {
		return nil
	}
	fb := dsp.MelFilterbank(w.SampleRate, r.NFFT, r.NMels, 0, 0)

	mel := make([][]float64, len(spec))
	power := make([]float64, len(spec[0]))
	for t, row := range spec {
		for k, c := range row {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		m := make([]float64, len(fb))
		for b, filt := range fb {
			m[b] = floats.Dot(filt, power)
		}
		mel[t] = m
	}
	db := dsp.PowerToDB(mel, r.TopDB)

	env := make([]float64, len(db))
	flux := make([]float64, len(fb))
	for t := 1; t < len(db); t++ {
		for b := range flux {
			flux[b] = math.Max(0, db[t][b]-db[t-1][b])
		}
		env[t] = floats.Sum(flux) / float64(len(flux))
	}
	return env
}

// pickOnsets counts frames above the given percentile of env, skipping any
// that land closer than minSep frames to the previously accepted one.
func pickOnsets(env []float64, percentile float64, minSep int) int {
	if len(env) == 0 {
		return 0
	}
	thr := dsp.Percentile(env, percentile)
	count, last := 0, -minSep
	for i, v := range env {
		if v <= thr {
			continue
		}
		if count == 0 || i-last >= minSep {
			count++
			last = i
		}
	}
	return count
}
