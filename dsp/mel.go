package dsp

import "math"

const (
	melFSP      = 200.0 / 3
	melMinLogHz = 1000.0
	melLogStep  = 0.06875177742094912 // ln(6.4) / 27
)

// HzToMel uses the Slaney scale: linear below 1 kHz, logarithmic above.
func HzToMel(f float64) float64 {
	if f < melMinLogHz {
		return f / melFSP
	}
	return melMinLogHz/melFSP + math.Log(f/melMinLogHz)/melLogStep
}

func MelToHz(m float64) float64 {
	minLogMel := melMinLogHz / melFSP
	if m < minLogMel {
		return m * melFSP
	}
	return melMinLogHz * math.Exp(melLogStep*(m-minLogMel))
}

// MelFilterbank builds nMels triangular, area-normalised filters over the
// nfft/2+1 one-sided bins, indexed [mel][bin].
func MelFilterbank(sampleRate, nfft, nMels int, fmin, fmax float64) [][]float64 {
	bins := nfft/2 + 1
	if fmax <= 0 || fmax > float64(sampleRate)/2 {
		fmax = float64(sampleRate) / 2
	}

	lo, hi := HzToMel(fmin), HzToMel(fmax)
	pts := make([]float64, nMels+2)
	for i := range pts {
		pts[i] = MelToHz(lo + (hi-lo)*float64(i)/float64(nMels+1))
	}

	fb := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		left, centre, right := pts[m], pts[m+1], pts[m+2]
		enorm := 2 / (right - left)
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			f := BinFrequency(k, sampleRate, nfft)
			up := (f - left) / (centre - left)
			down := (right - f) / (right - centre)
			if v := math.Min(up, down); v > 0 {
				row[k] = v * enorm
			}
		}
		fb[m] = row
	}
	return fb
}

// PowerToDB converts power to decibels relative to the maximum value,
// clipped to topDB below the peak.
func PowerToDB(s [][]float64, topDB float64) [][]float64 {
	const amin = 1e-10
	ref := amin
	for _, row := range s {
		for _, v := range row {
			if v > ref {
				ref = v
			}
		}
	}
	refDB := 10 * math.Log10(ref)
	peak := math.Inf(-1)
	out := make([][]float64, len(s))
	for t, row := range s {
		o := make([]float64, len(row))
		for k, v := range row {
			o[k] = 10*math.Log10(math.Max(amin, v)) - refDB
			if o[k] > peak {
				peak = o[k]
			}
		}
		out[t] = o
	}
	if topDB > 0 {
		floor := peak - topDB
		for _, row := range out {
			for k := range row {
				if row[k] < floor {
					row[k] = floor
				}
			}
		}
	}
	return out
}
