// Package dsp computes the MFCC, chroma and tempogram descriptors of an
// analysis window.
package dsp

import (
	"errors"
	"sync"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

const (
	DefaultWindowSize  = 2048
	DefaultHopSize     = 1024
	DefaultNumMels     = 128
	DefaultNumMFCC     = 20
	DefaultTempoWindow = 16
)

var ErrEmptyWindow = errors.New("dsp: empty analysis window")

// Extractor is safe for concurrent use. Filter banks are built lazily per
// sample rate and cached.
type Extractor struct {
	WindowSize  int
	HopSize     int
	NumMels     int
	NumMFCC     int
	TempoWindow int

	mu    sync.Mutex
	banks map[int]*filters
}

type filters struct {
	mel    [][]float64
	window []float64
	chroma []int
}

func NewExtractor() *Extractor {
	return &Extractor{
		WindowSize:  DefaultWindowSize,
		HopSize:     DefaultHopSize,
		NumMels:     DefaultNumMels,
		NumMFCC:     DefaultNumMFCC,
		TempoWindow: DefaultTempoWindow,
	}
}

func (e *Extractor) filtersFor(sampleRate int) *filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.banks == nil {
		e.banks = make(map[int]*filters)
	}
	f, ok := e.banks[sampleRate]
	if !ok {
		f = &filters{
			mel:    melFilterBank(e.NumMels, e.WindowSize, sampleRate),
			window: Hann(e.WindowSize),
			chroma: chromaBins(e.WindowSize, sampleRate),
		}
		e.banks[sampleRate] = f
	}
	return f
}

// Extract returns the descriptors of one window with shapes
// [NumMFCC, frames], [12, frames] and [TempoWindow, frames].
func (e *Extractor) Extract(window []float64, sampleRate int) (models.Descriptor, models.Descriptor, models.Descriptor, error) {
	var zero models.Descriptor
	if len(window) == 0 {
		return zero, zero, zero, ErrEmptyWindow
	}
	if sampleRate <= 0 {
		return zero, zero, zero, errors.New("dsp: sample rate must be positive")
	}

	f := e.filtersFor(sampleRate)
	spec, err := STFT(window, e.WindowSize, e.HopSize, f.window)
	if err != nil {
		return zero, zero, zero, err
	}

	melDB := melSpectrogramDB(spec, f.mel)
	return flatten(mfcc(melDB, e.NumMFCC)),
		flatten(chroma(spec, f.chroma)),
		flatten(tempogram(onsetStrength(melDB), e.TempoWindow)),
		nil
}

// flatten packs a row-major matrix into a descriptor.
func flatten(rows [][]float64) models.Descriptor {
	if len(rows) == 0 {
		return models.Descriptor{}
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		data = append(data, r...)
	}
	return models.Descriptor{Shape: []int{len(rows), cols}, Data: data}
}
