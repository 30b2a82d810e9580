package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sr, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return x
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		p    float64
		want float64
	}{
		{"median odd", []float64{3, 1, 2}, 50, 2},
		{"median even", []float64{4, 1, 3, 2}, 50, 2.5},
		{"p75 interpolated", []float64{1, 2, 3, 4}, 75, 3.25},
		{"p80", []float64{0, 1, 2, 3, 4, 5}, 80, 4},
		{"min", []float64{5, 9, 7}, 0, 5},
		{"max", []float64{5, 9, 7}, 100, 9},
		{"single", []float64{42}, 80, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.x, tt.p), 1e-12)
		})
	}
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestPercentileDoesNotReorder(t *testing.T) {
	x := []float64{3, 1, 2}
	Median(x)
	assert.Equal(t, []float64{3, 1, 2}, x)
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{0, 0, 5, 0, 0, 0, 0}, 5)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1, 1, 0, 0}, got, 1e-12)

	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 1))
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 0.5, RMS([]float64{0.5, -0.5, 0.5, -0.5}), 1e-12)
	assert.InDelta(t, 1/math.Sqrt2, RMS(sine(100, 8000, 8000)), 1e-3)
}

func TestFrames(t *testing.T) {
	x := make([]float64, 4096)
	frames := Frames(x, 2048, 512)
	assert.Len(t, frames, FrameCount(len(x), 512))
	for _, f := range frames {
		require.Len(t, f, 2048)
	}
}

func TestSTFTPeak(t *testing.T) {
	const sr, nfft = 16000, 2048
	spec := STFT(sine(1000, sr, sr), nfft, 512)
	require.NotEmpty(t, spec)
	require.Len(t, spec[0], nfft/2+1)

	mag := Magnitude(spec)
	mid := mag[len(mag)/2]
	best := 0
	for k := range mid {
		if mid[k] > mid[best] {
			best = k
		}
	}
	assert.InDelta(t, 1000, BinFrequency(best, sr, nfft), float64(sr)/nfft)
}

func TestISTFTRoundTrip(t *testing.T) {
	const sr, nfft, hop = 16000, 2048, 512
	x := sine(220, sr, 10000)
	y := ISTFT(STFT(x, nfft, hop), nfft, hop, len(x))

	require.Len(t, y, len(x))
	for i := nfft; i < len(x)-nfft; i++ {
		require.InDelta(t, x[i], y[i], 1e-6, "sample %d", i)
	}
}

func TestMelScale(t *testing.T) {
	for _, f := range []float64{0, 200, 999, 1000, 4000, 8000} {
		assert.InDelta(t, f, MelToHz(HzToMel(f)), 1e-6)
	}
	assert.InDelta(t, 15, HzToMel(1000), 1e-9)
}

func TestMelFilterbank(t *testing.T) {
	fb := MelFilterbank(16000, 2048, 128, 0, 0)
	require.Len(t, fb, 128)
	for m, row := range fb {
		require.Len(t, row, 1025)
		nonzero := 0
		for _, v := range row {
			require.GreaterOrEqual(t, v, 0.0)
			if v > 0 {
				nonzero++
			}
		}
		// the lowest filters are narrower than one bin at this resolution
		if m > 20 {
			assert.NotZero(t, nonzero, "filter %d is empty", m)
		}
	}
}

func TestPowerToDB(t *testing.T) {
	db := PowerToDB([][]float64{{1, 0.1, 0}}, 80)
	assert.InDelta(t, 0, db[0][0], 1e-9)
	assert.InDelta(t, -10, db[0][1], 1e-9)
	assert.InDelta(t, -80, db[0][2], 1e-9)
}
