// Package dsp holds the short-time spectral primitives shared by the
// feature estimators.
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Center zero-pads x by n/2 on both sides so frame t is centred on sample t*hop.
func Center(x []float64, n int) []float64 {
	pad := n / 2
	out := make([]float64, len(x)+2*pad)
	copy(out[pad:], x)
	return out
}

// FrameCount is the number of centred frames for a signal of length n.
func FrameCount(n, hop int) int {
	if hop <= 0 {
		return 0
	}
	return 1 + n/hop
}

// Frames slices the centred signal into overlapping windows of frameLen
// samples. Frames share memory with the padded copy, not with x.
func Frames(x []float64, frameLen, hop int) [][]float64 {
	padded := Center(x, frameLen)
	count := FrameCount(len(x), hop)
	out := make([][]float64, 0, count)
	for t := 0; t < count; t++ {
		start := t * hop
		end := start + frameLen
		if end > len(padded) {
			break
		}
		out = append(out, padded[start:end])
	}
	return out
}

// STFT returns the one-sided spectrum of each Hann-windowed centred frame,
// indexed [frame][bin] with nfft/2+1 bins.
func STFT(x []float64, nfft, hop int) [][]complex128 {
	fft := fourier.NewFFT(nfft)
	win := Hann(nfft)
	buf := make([]float64, nfft)

	frames := Frames(x, nfft, hop)
	out := make([][]complex128, len(frames))
	for t, fr := range frames {
		floats.MulTo(buf, fr, win)
		out[t] = fft.Coefficients(nil, buf)
	}
	return out
}

// ISTFT inverts STFT by weighted overlap-add and returns length samples.
func ISTFT(spec [][]complex128, nfft, hop, length int) []float64 {
	fft := fourier.NewFFT(nfft)
	win := Hann(nfft)
	total := nfft + hop*(len(spec)-1)
	if total < nfft {
		total = nfft
	}
	y := make([]float64, total)
	norm := make([]float64, total)
	seq := make([]float64, nfft)

	for t, coeff := range spec {
		fft.Sequence(seq, coeff)
		floats.Scale(1/float64(nfft), seq)
		off := t * hop
		for i := range seq {
			y[off+i] += seq[i] * win[i]
			norm[off+i] += win[i] * win[i]
		}
	}
	for i := range y {
		if norm[i] > 1e-10 {
			y[i] /= norm[i]
		}
	}

	out := make([]float64, length)
	pad := nfft / 2
	if pad < len(y) {
		copy(out, y[pad:])
	}
	return out
}

// Magnitude returns |X| for every frame and bin.
func Magnitude(spec [][]complex128) [][]float64 {
	out := make([][]float64, len(spec))
	for t, row := range spec {
		m := make([]float64, len(row))
		for k, c := range row {
			m[k] = cmplx.Abs(c)
		}
		out[t] = m
	}
	return out
}

// BinFrequency is the centre frequency of bin k.
func BinFrequency(k, sampleRate, nfft int) float64 {
	return float64(k) * float64(sampleRate) / float64(nfft)
}
