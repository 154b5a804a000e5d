package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

// melFilterBank builds numMels triangular filters spanning 0..sampleRate/2
// over the bins of a windowSize-point spectrum.
func melFilterBank(numMels, windowSize, sampleRate int) [][]float64 {
	bins := windowSize/2 + 1
	maxMel := hzToMel(float64(sampleRate) / 2)

	// numMels+2 equally spaced mel points, converted to fractional bins
	edges := make([]float64, numMels+2)
	floats.Span(edges, 0, maxMel)
	for i, m := range edges {
		edges[i] = melToHz(m) * float64(windowSize) / float64(sampleRate)
	}

	bank := make([][]float64, numMels)
	for m := range bank {
		lo, mid, hi := edges[m], edges[m+1], edges[m+2]
		filter := make([]float64, bins)
		for k := range filter {
			x := float64(k)
			switch {
			case x > lo && x <= mid && mid > lo:
				filter[k] = (x - lo) / (mid - lo)
			case x > mid && x < hi && hi > mid:
				filter[k] = (hi - x) / (hi - mid)
			}
		}
		bank[m] = filter
	}
	return bank
}

// dctMatrix returns the first n rows of an orthonormal DCT-II of size size.
func dctMatrix(n, size int) [][]float64 {
	m := make([][]float64, n)
	for k := range m {
		row := make([]float64, size)
		scale := math.Sqrt(2 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1 / float64(size))
		}
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/float64(2*size))
		}
		m[k] = row
	}
	return m
}

// melSpectrogramDB maps each frame's power spectrum through the filter bank
// and converts to decibels. Result is melDB[frame][band].
func melSpectrogramDB(spec [][]float64, bank [][]float64) [][]float64 {
	out := make([][]float64, len(spec))
	power := make([]float64, len(bank[0]))
	for t, frame := range spec {
		floats.MulTo(power, frame, frame)
		bands := make([]float64, len(bank))
		for m, filter := range bank {
			bands[m] = 10 * math.Log10(math.Max(floats.Dot(filter, power), 1e-10))
		}
		out[t] = bands
	}
	return out
}

// mfcc computes numCoeffs cepstral coefficients per frame from a mel
// spectrogram in dB. Result is coefficient-major: mfcc[coeff][frame].
func mfcc(melDB [][]float64, numCoeffs int) [][]float64 {
	if len(melDB) == 0 {
		return nil
	}
	dct := dctMatrix(numCoeffs, len(melDB[0]))
	out := make([][]float64, numCoeffs)
	for k := range out {
		out[k] = make([]float64, len(melDB))
		for t, bands := range melDB {
			out[k][t] = floats.Dot(dct[k], bands)
		}
	}
	return out
}
