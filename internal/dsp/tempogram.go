package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// onsetStrength is the positive spectral flux of a mel spectrogram in dB,
// averaged over bands. The first frame has no predecessor and gets zero.
func onsetStrength(melDB [][]float64) []float64 {
	out := make([]float64, len(melDB))
	for t := 1; t < len(melDB); t++ {
		var flux float64
		for m, v := range melDB[t] {
			flux += math.Max(0, v-melDB[t-1][m])
		}
		out[t] = flux / float64(len(melDB[t]))
	}
	return out
}

// tempogram computes a local autocorrelation of the onset envelope over a
// window of winLength frames centred on each frame. Result is
// tempogram[lag][frame], each column normalized by its zero-lag value.
func tempogram(onset []float64, winLength int) [][]float64 {
	n := len(onset)
	half := winLength / 2

	out := make([][]float64, winLength)
	for lag := range out {
		out[lag] = make([]float64, n)
	}

	seg := make([]float64, winLength)
	col := make([]float64, winLength)
	for t := 0; t < n; t++ {
		for i := range seg {
			j := t - half + i
			if j >= 0 && j < n {
				seg[i] = onset[j]
			} else {
				seg[i] = 0
			}
		}
		for lag := range col {
			col[lag] = floats.Dot(seg[:winLength-lag], seg[lag:])
		}
		if col[0] > 0 {
			floats.Scale(1/col[0], col)
		}
		for lag, v := range col {
			out[lag][t] = v
		}
	}
	return out
}
