package acousticsim

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// EncodeDescriptor serializes a descriptor as raw little-endian float64
// values in row-major order. The shape is not stored.
func EncodeDescriptor(d models.Descriptor) []byte {
	data := d.Flatten()
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeDescriptor is the inverse of EncodeDescriptor and always yields a
// rank-1 descriptor.
func DecodeDescriptor(blob []byte) (models.Descriptor, error) {
	if len(blob)%8 != 0 {
		return models.Descriptor{}, fmt.Errorf("%w: blob of %d bytes is not a float64 array", ErrMalformedFeature, len(blob))
	}
	data := make([]float64, len(blob)/8)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return models.NewDescriptor(data), nil
}
