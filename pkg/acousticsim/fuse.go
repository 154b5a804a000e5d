package acousticsim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// Fusion weights. Stored similarity lists were computed with these values,
// so they must not change without recomputing the corpus.
const (
	MFCCWeight      = 1
	ChromaWeight    = 133
	TempogramWeight = 280
)

// Fuse flattens the three descriptors of one segment, weights them and
// concatenates them in MFCC, chroma, tempogram order.
func Fuse(mfcc, chroma, tempogram models.Descriptor) ([]float64, error) {
	parts := []struct {
		name   string
		d      models.Descriptor
		weight float64
	}{
		{"mfcc", mfcc, MFCCWeight},
		{"chroma", chroma, ChromaWeight},
		{"tempogram", tempogram, TempogramWeight},
	}

	total := 0
	for _, p := range parts {
		n := len(p.d.Flatten())
		if n == 0 {
			return nil, fmt.Errorf("%w: %s descriptor is empty", ErrMalformedFeature, p.name)
		}
		if p.d.Size() != n {
			return nil, fmt.Errorf("%w: %s shape %v does not match %d values", ErrMalformedFeature, p.name, p.d.Shape, n)
		}
		total += n
	}

	out := make([]float64, total)
	off := 0
	for _, p := range parts {
		src := p.d.Flatten()
		floats.ScaleTo(out[off:off+len(src)], p.weight, src)
		off += len(src)
	}
	return out, nil
}

// FuseBlobs decodes three stored descriptor blobs and fuses them.
func FuseBlobs(mfcc, chroma, tempogram []byte) ([]float64, error) {
	m, err := DecodeDescriptor(mfcc)
	if err != nil {
		return nil, fmt.Errorf("mfcc: %w", err)
	}
	c, err := DecodeDescriptor(chroma)
	if err != nil {
		return nil, fmt.Errorf("chroma: %w", err)
	}
	t, err := DecodeDescriptor(tempogram)
	if err != nil {
		return nil, fmt.Errorf("tempogram: %w", err)
	}
	return Fuse(m, c, t)
}

// fuseSegment builds the matching tuple of a stored segment.
func fuseSegment(seg models.Segment) (models.LoadedSegment, error) {
	vec, err := FuseBlobs(seg.MFCC, seg.Chroma, seg.Tempogram)
	if err != nil {
		return models.LoadedSegment{}, err
	}
	return models.LoadedSegment{
		ID:       seg.ID,
		SongID:   seg.SongID,
		StartSec: seg.TimeFrom / 1000,
		Vector:   vec,
	}, nil
}
