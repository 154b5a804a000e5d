// Package audio turns audio files into mono float64 sample buffers.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Decoder reads WAV and MP3 natively and hands every other format to ffmpeg.
type Decoder struct {
	TempDir string
}

func NewDecoder(tempDir string) *Decoder {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Decoder{TempDir: tempDir}
}

// Decode returns mono samples of path at sampleRate.
func (d *Decoder) Decode(ctx context.Context, path string, sampleRate int) ([]float64, int, error) {
	var (
		samples []float64
		rate    int
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		samples, rate, err = ReadWAV(path)
	case ".mp3":
		samples, rate, err = ReadMP3(path)
	default:
		var wavPath string
		wavPath, err = ConvertToMonoWAV(ctx, path, d.TempDir, ConvertWAVConfig{SampleRate: sampleRate})
		if err != nil {
			return nil, 0, fmt.Errorf("audio conversion failed: %w", err)
		}
		defer os.Remove(wavPath)
		samples, rate, err = ReadWAV(wavPath)
	}
	if err != nil {
		return nil, 0, err
	}

	if sampleRate > 0 && rate != sampleRate {
		samples = Resample(samples, rate, sampleRate)
		rate = sampleRate
	}
	return samples, rate, nil
}
