package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Pitch class of every spectrum bin, or -1 for bins outside the musical range.
func chromaBins(windowSize, sampleRate int) []int {
	bins := windowSize/2 + 1
	classes := make([]int, bins)
	for k := range classes {
		f := float64(k) * float64(sampleRate) / float64(windowSize)
		if f < 27.5 || f > 4186 {
			classes[k] = -1
			continue
		}
		// semitones relative to A4; C is class 0
		semis := int(math.Round(12 * math.Log2(f/440)))
		classes[k] = ((semis+9)%12 + 12) % 12
	}
	return classes
}

// chroma folds each frame's energy into 12 pitch classes and normalizes
// every frame by its maximum. Result is chroma[class][frame].
func chroma(spec [][]float64, classes []int) [][]float64 {
	out := make([][]float64, 12)
	for c := range out {
		out[c] = make([]float64, len(spec))
	}
	frame := make([]float64, 12)
	for t, mag := range spec {
		for c := range frame {
			frame[c] = 0
		}
		for k, v := range mag {
			if c := classes[k]; c >= 0 {
				frame[c] += v * v
			}
		}
		if peak := floats.Max(frame); peak > 0 {
			floats.Scale(1/peak, frame)
		}
		for c, v := range frame {
			out[c][t] = v
		}
	}
	return out
}
