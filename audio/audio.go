package audio

import (
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

var (
	ErrInvalidWAV = errors.New("audio: invalid wav file")
	ErrEmpty      = errors.New("audio: no samples")
)

// WAVE_FORMAT_IEEE_FLOAT; go-audio only decodes integer PCM.
const formatIEEEFloat = 3

// Waveform is a mono signal in [-1, 1] at its native sample rate.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Load decodes a PCM wav file and downmixes it to mono.
func Load(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, errors.Wrapf(err, "audio: opening %s failed", path)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() || d.WavAudioFormat == formatIEEEFloat {
		return Waveform{}, errors.Wrapf(ErrInvalidWAV, "audio: decoding %s failed", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Waveform{}, errors.Wrapf(err, "audio: reading pcm of %s failed", path)
	}
	return FromIntBuffer(buf)
}

// FromIntBuffer converts interleaved integer PCM to a normalized mono Waveform.
// 8-bit samples are unsigned with a midpoint of 128.
func FromIntBuffer(buf *goaudio.IntBuffer) (Waveform, error) {
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return Waveform{}, ErrEmpty
	}
	ch := buf.Format.NumChannels
	if ch < 1 {
		ch = 1
	}
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}
	scale := math.Pow(2, float64(depth-1))
	offset := 0.0
	if depth == 8 {
		offset = 128
	}

	n := len(buf.Data) / ch
	if n == 0 {
		return Waveform{}, ErrEmpty
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c]) - offset
		}
		out[i] = sum / float64(ch) / scale
	}
	return Waveform{Samples: out, SampleRate: buf.Format.SampleRate}, nil
}
