package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// ReadMP3 decodes an MP3 file into mono samples in [-1, 1]. go-mp3 always
// produces 16-bit little-endian stereo.
func ReadMP3(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode failed: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 read failed: %w", err)
	}

	data := make([]int, len(raw)/2)
	for i := range data {
		data[i] = int(int16(raw[2*i]) | int16(raw[2*i+1])<<8)
	}
	return downmix(data, 2, 32768), decoder.SampleRate(), nil
}
