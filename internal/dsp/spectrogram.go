package dsp

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Hann returns a periodic Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// MagnitudeSpectrum converts a complex spectrum into magnitudes for bins
// 0..n/2 inclusive.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum)/2 + 1
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// STFT computes a time-major magnitude spectrogram: spectrogram[frame][bin].
// Input shorter than one window is zero padded to a single frame.
func STFT(samples []float64, windowSize, hopSize int, window []float64) ([][]float64, error) {
	if len(window) != windowSize {
		return nil, errors.New("window length must equal windowSize")
	}
	if hopSize <= 0 {
		return nil, errors.New("hop size must be positive")
	}
	if len(samples) == 0 {
		return nil, errors.New("no samples")
	}
	if len(samples) < windowSize {
		padded := make([]float64, windowSize)
		copy(padded, samples)
		samples = padded
	}

	frames := 1 + (len(samples)-windowSize)/hopSize
	spectrogram := make([][]float64, 0, frames)
	frame := make([]float64, windowSize)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := 0; i < windowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		spectrogram = append(spectrogram, MagnitudeSpectrum(fft.FFTReal(frame)))
	}
	return spectrogram, nil
}
