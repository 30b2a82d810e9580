package features

import (
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/voicecheck/audio"
	"github.com/maastricht-university/voicecheck/dsp"
)

// Preprocessor transforms a waveform before feature extraction. The result
// has the same length and sample rate as the input.
type Preprocessor interface {
	Process(w audio.Waveform) audio.Waveform
}

// Identity is the Preprocessor used when noise reduction is disabled.
type Identity struct{}

func (Identity) Process(w audio.Waveform) audio.Waveform { return w }

// NoiseReducer estimates a noise spectrum from the leading NoiseSeconds of
// the signal and subtracts it from every frame.
type NoiseReducer struct {
	NFFT         int
	HopLength    int
	NoiseSeconds float64
	Strength     float64
	Log          logrus.FieldLogger
}

func DefaultNoiseReducer() NoiseReducer {
	return NoiseReducer{NFFT: 2048, HopLength: 512, NoiseSeconds: 0.5, Strength: 1}
}

func (n NoiseReducer) Process(w audio.Waveform) audio.Waveform {
	clip := int(n.NoiseSeconds * float64(w.SampleRate))
	if clip <= 0 || len(w.Samples) < clip {
		n.logger().WithFields(logrus.Fields{
			"samples":     len(w.Samples),
			"noise_clip":  clip,
			"sample_rate": w.SampleRate,
		}).Debug("signal shorter than noise clip, skipping noise reduction")
		out := make([]float64, len(w.Samples))
		copy(out, w.Samples)
		return audio.Waveform{Samples: out, SampleRate: w.SampleRate}
	}

	profile := n.profile(w.Samples[:clip])
	spec := dsp.STFT(w.Samples, n.NFFT, n.HopLength)
	for _, row := range spec {
		for k, c := range row {
			mag := math.Max(0, cmplx.Abs(c)-n.Strength*profile[k])
			row[k] = cmplx.Rect(mag, cmplx.Phase(c))
		}
	}
	return audio.Waveform{
		Samples:    dsp.ISTFT(spec, n.NFFT, n.HopLength, len(w.Samples)),
		SampleRate: w.SampleRate,
	}
}

// profile is the per-bin mean magnitude of the noise clip.
func (n NoiseReducer) profile(clip []float64) []float64 {
	mag := dsp.Magnitude(dsp.STFT(clip, n.NFFT, n.HopLength))
	out := make([]float64, n.NFFT/2+1)
	for _, row := range mag {
		for k, v := range row {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(mag))
	}
	return out
}

func (n NoiseReducer) logger() logrus.FieldLogger {
	if n.Log != nil {
		return n.Log
	}
	return logrus.StandardLogger()
}
