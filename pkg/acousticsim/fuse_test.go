package acousticsim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

func TestFuseWeightsAndOrder(t *testing.T) {
	mfcc := models.Descriptor{Shape: []int{2, 1}, Data: []float64{1, -2}}
	chroma := models.NewDescriptor([]float64{1})
	tempo := models.NewDescriptor([]float64{0.5, 0})

	got, err := Fuse(mfcc, chroma, tempo)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2, 133, 140, 0}, got)
}

func TestFuseIsDeterministic(t *testing.T) {
	d := models.NewDescriptor([]float64{0.1, 0.2, 0.3})
	a, err := Fuse(d, d, d)
	require.NoError(t, err)
	b, err := Fuse(d, d, d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 9)
}

func TestFuseRejectsMalformedInput(t *testing.T) {
	ok := models.NewDescriptor([]float64{1})
	tests := []struct {
		name                string
		mfcc, chroma, tempo models.Descriptor
	}{
		{"empty mfcc", models.Descriptor{}, ok, ok},
		{"empty chroma", ok, models.NewDescriptor(nil), ok},
		{"shape mismatch", ok, ok, models.Descriptor{Shape: []int{2, 2}, Data: []float64{1, 2, 3}}},
		{"missing shape", ok, models.Descriptor{Data: []float64{1}}, ok},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fuse(tt.mfcc, tt.chroma, tt.tempo)
			assert.ErrorIs(t, err, ErrMalformedFeature)
		})
	}
}

func TestDescriptorBlobLayout(t *testing.T) {
	blob := EncodeDescriptor(models.NewDescriptor([]float64{1.0}))
	// 1.0 as little-endian IEEE-754 double
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}, blob)

	d, err := DecodeDescriptor(append(blob, EncodeDescriptor(models.NewDescriptor([]float64{-2.5}))...))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, d.Shape)
	assert.Equal(t, []float64{1, -2.5}, d.Data)
}

func TestDecodeDescriptorRejectsTruncatedBlob(t *testing.T) {
	_, err := DecodeDescriptor(make([]byte, 12))
	assert.ErrorIs(t, err, ErrMalformedFeature)

	_, err = FuseBlobs(make([]byte, 8), make([]byte, 7), make([]byte, 8))
	assert.ErrorIs(t, err, ErrMalformedFeature)

	_, err = FuseBlobs(make([]byte, 8), nil, make([]byte, 8))
	assert.ErrorIs(t, err, ErrMalformedFeature)
}

func TestErrorWrapping(t *testing.T) {
	err := storeError("Count", errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "acousticsim.Count")
	assert.Contains(t, err.Error(), "connection refused")

	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Count", opErr.Op)

	assert.NoError(t, WrapError("noop", nil))
}
