package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("audio: not a valid WAV file")

// ReadWAV decodes a PCM WAV file into mono samples in [-1, 1] and returns
// them with the file's sample rate. Multi-channel audio is averaged.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading PCM data: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	maxVal, err := sampleScale(bitDepth)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", err, path)
	}

	return downmix(buf.Data, channels, maxVal), int(dec.SampleRate), nil
}

// sampleScale returns the magnitude of full scale for signed samples of the
// given bit depth.
func sampleScale(bitDepth int) (float64, error) {
	if bitDepth < 1 || bitDepth > 32 {
		return 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, bitDepth)
	}
	return float64(int64(1) << (bitDepth - 1)), nil
}

// downmix averages interleaved integer frames into normalized mono samples.
func downmix(data []int, channels int, maxVal float64) []float64 {
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		out[i] = float64(sum) / float64(channels) / maxVal
	}
	return out
}
