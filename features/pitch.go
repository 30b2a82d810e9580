package features

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/voicecheck/audio"
	"github.com/maastricht-university/voicecheck/dsp"
)

// Band is an open frequency interval (Low, High) in Hz.
type Band struct {
	Low  float64 `yaml:"low" mapstructure:"low"`
	High float64 `yaml:"high" mapstructure:"high"`
}

func (b Band) Contains(f float64) bool { return f > b.Low && f < b.High }

// PitchEstimator tracks spectral peaks per frame and reports the median of
// the strongest in-band peak across frames.
type PitchEstimator struct {
	NFFT           int
	HopLength      int
	FMin, FMax     float64 // candidate search range
	PeakThreshold  float64 // relative to the frame maximum
	GatePercentile float64
	VoiceBand      Band
}

func DefaultPitchEstimator() PitchEstimator {
	return PitchEstimator{
		NFFT:           2048,
		HopLength:      512,
		FMin:           40,
		FMax:           4000,
		PeakThreshold:  0.1,
		GatePercentile: 75,
		VoiceBand:      Band{Low: 50, High: 400},
	}
}

// Estimate returns nil when no frame yields a pitch inside the voice band.
func (p PitchEstimator) Estimate(w audio.Waveform) *float64 {
	if len(w.Samples) == 0 || w.SampleRate <= 0 {
		return nil
	}
	pitches, mags := p.track(w)
	if len(mags) == 0 {
		return nil
	}

	all := make([]float64, 0, len(mags)*len(mags[0]))
	for _, row := range mags {
		all = append(all, row...)
	}
	gate := dsp.Percentile(all, p.GatePercentile)
	for _, row := range mags {
		for k := range row {
			if row[k] < gate {
				row[k] = 0
			}
		}
	}

	var voiced []float64
	for t, row := range mags {
		f := pitches[t][floats.MaxIdx(row)]
		if p.VoiceBand.Contains(f) {
			voiced = append(voiced, f)
		}
	}
	if len(voiced) == 0 {
		return nil
	}
	m := dsp.Median(voiced)
	return &m
}

// track returns per-frame, per-bin interpolated peak frequencies and
// magnitudes; bins that are not peaks stay zero in both.
func (p PitchEstimator) track(w audio.Waveform) (pitches, mags [][]float64) {
	spec := dsp.Magnitude(dsp.STFT(w.Samples, p.NFFT, p.HopLength))
	if len(spec) == 0 {
		return nil, nil
	}
	bins := len(spec[0])
	lo := int(math.Ceil(p.FMin * float64(p.NFFT) / float64(w.SampleRate)))
	if lo < 1 {
		lo = 1
	}
	hi := int(math.Ceil(p.FMax*float64(p.NFFT)/float64(w.SampleRate))) - 1
	if hi > bins-2 {
		hi = bins - 2
	}

	pitches = make([][]float64, len(spec))
	mags = make([][]float64, len(spec))
	for t, s := range spec {
		pitches[t] = make([]float64, bins)
		mags[t] = make([]float64, bins)
		ref := p.PeakThreshold * floats.Max(s)
		for k := lo; k <= hi; k++ {
			if !(s[k] > s[k-1] && s[k] >= s[k+1] && s[k] > ref) {
				continue
			}
			avg := 0.5 * (s[k+1] - s[k-1])
			shift := 2*s[k] - s[k+1] - s[k-1]
			if math.Abs(shift) > 1e-12 {
				shift = avg / shift
			} else {
				shift = 0
			}
			pitches[t][k] = (float64(k) + shift) * float64(w.SampleRate) / float64(p.NFFT)
			mags[t][k] = s[k] + 0.5*avg*shift
		}
	}
	return pitches, mags
}
