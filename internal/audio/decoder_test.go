package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes interleaved 16-bit frames to a WAV file.
func writeTestWAV(t *testing.T, path string, sampleRate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize WAV: %v", err)
	}
}

func TestReadWAVDownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// two frames: (16384, 0) and (-32768, -32768)
	writeTestWAV(t, path, 8000, 2, []int{16384, 0, -32768, -32768})

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("Expected 8000 Hz, got %d", rate)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 mono samples, got %d", len(samples))
	}
	if math.Abs(samples[0]-0.25) > 1e-9 {
		t.Errorf("Expected first sample 0.25, got %f", samples[0])
	}
	if math.Abs(samples[1]+1) > 1e-9 {
		t.Errorf("Expected second sample -1, got %f", samples[1])
	}
}

func TestReadWAVInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, _, err := ReadWAV(path)
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("Expected ErrInvalidWAV, got %v", err)
	}
}

func TestReadWAVZeroBitDepth(t *testing.T) {
	var hdr bytes.Buffer
	le := func(v any) { binary.Write(&hdr, binary.LittleEndian, v) }
	hdr.WriteString("RIFF")
	le(uint32(40))
	hdr.WriteString("WAVEfmt ")
	le(uint32(16))
	le(uint16(1))    // PCM
	le(uint16(1))    // channels
	le(uint32(8000)) // sample rate
	le(uint32(0))    // byte rate
	le(uint16(0))    // block align
	le(uint16(0))    // bits per sample
	hdr.WriteString("data")
	le(uint32(4))
	hdr.Write(make([]byte, 4))

	path := filepath.Join(t.TempDir(), "zero-bits.wav")
	if err := os.WriteFile(path, hdr.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, _, err := ReadWAV(path)
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("Expected ErrInvalidWAV, got %v", err)
	}
}

func TestSampleScale(t *testing.T) {
	tests := []struct {
		bitDepth int
		want     float64
		wantErr  bool
	}{
		{bitDepth: 0, wantErr: true},
		{bitDepth: -8, wantErr: true},
		{bitDepth: 33, wantErr: true},
		{bitDepth: 8, want: 128},
		{bitDepth: 16, want: 32768},
		{bitDepth: 24, want: 8388608},
		{bitDepth: 32, want: 2147483648},
	}
	for _, tt := range tests {
		got, err := sampleScale(tt.bitDepth)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("sampleScale(%d): expected ErrInvalidWAV, got %v", tt.bitDepth, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("sampleScale(%d) = %v, %v; want %v", tt.bitDepth, got, err, tt.want)
		}
	}
}

func TestDecodeResamplesToRequestedRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	data := make([]int, 8000) // one second of mono audio
	for i := range data {
		data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/8000))
	}
	writeTestWAV(t, path, 8000, 1, data)

	dec := NewDecoder(t.TempDir())
	samples, rate, err := dec.Decode(context.Background(), path, 4000)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rate != 4000 {
		t.Errorf("Expected 4000 Hz, got %d", rate)
	}
	if len(samples) != 4000 {
		t.Errorf("Expected 4000 samples, got %d", len(samples))
	}
}

func TestDecodeMissingFile(t *testing.T) {
	dec := NewDecoder(t.TempDir())
	if _, _, err := dec.Decode(context.Background(), "/does/not/exist.wav", 22050); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDecodeThroughFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	src := filepath.Join(t.TempDir(), "source.wav")
	writeTestWAV(t, src, 8000, 1, make([]int, 8000))
	// a non-native extension routes the file through ffmpeg
	aiff := filepath.Join(t.TempDir(), "source.aif")
	if out, err := exec.Command("ffmpeg", "-y", "-v", "quiet", "-i", src, aiff).CombinedOutput(); err != nil {
		t.Skipf("ffmpeg could not produce fixture: %v (%s)", err, out)
	}

	samples, rate, err := NewDecoder(t.TempDir()).Decode(context.Background(), aiff, 8000)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rate != 8000 || len(samples) < 7900 {
		t.Errorf("Unexpected decode result: %d samples at %d Hz", len(samples), rate)
	}
}

func TestResample(t *testing.T) {
	in := []float64{0, 1, 2, 3}

	if got := Resample(in, 100, 100); len(got) != 4 {
		t.Errorf("Expected unchanged input, got %v", got)
	}

	up := Resample(in, 1, 2)
	want := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3}
	if len(up) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(up))
	}
	for i := range want {
		if math.Abs(up[i]-want[i]) > 1e-12 {
			t.Errorf("up[%d] = %f, want %f", i, up[i], want[i])
		}
	}

	down := Resample(in, 2, 1)
	if len(down) != 2 || down[0] != 0 || down[1] != 2 {
		t.Errorf("Unexpected downsampled output %v", down)
	}
}
