package dsp

import (
	"math"
	"sort"
)

// Percentile uses linear interpolation between closest ranks, so the 50th
// percentile of an even-length slice is the mean of the two middle values.
// x is not modified. Returns NaN for an empty slice.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)

	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(s) {
		hi = len(s) - 1
	}
	frac := rank - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}

func Median(x []float64) float64 { return Percentile(x, 50) }

// MovingAverage convolves x with a box of width w and keeps the centre
// len(x) samples; samples beyond the edges count as zero.
func MovingAverage(x []float64, w int) []float64 {
	out := make([]float64, len(x))
	if w <= 1 {
		copy(out, x)
		return out
	}
	// same-mode alignment: output i covers x[i-half .. i-half+w-1]
	half := (w - 1) / 2
	for i := range x {
		sum := 0.0
		for j := i - half; j < i-half+w; j++ {
			if j >= 0 && j < len(x) {
				sum += x[j]
			}
		}
		out[i] = sum / float64(w)
	}
	return out
}

// RMS is the root-mean-square amplitude of a frame.
func RMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
