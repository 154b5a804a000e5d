package models

// Song identifies an audio file queued for analysis.
type Song struct {
	ID   string // stable song identifier
	Path string // audio file on disk
}

// Descriptor is a numeric array of arbitrary rank stored row-major.
type Descriptor struct {
	Shape []int
	Data  []float64
}

// NewDescriptor wraps data as a rank-1 descriptor.
func NewDescriptor(data []float64) Descriptor {
	return Descriptor{Shape: []int{len(data)}, Data: data}
}

// Flatten returns the descriptor's values in row-major order.
func (d Descriptor) Flatten() []float64 {
	return d.Data
}

// Size is the element count implied by Shape.
func (d Descriptor) Size() int {
	if len(d.Shape) == 0 {
		return 0
	}
	n := 1
	for _, dim := range d.Shape {
		n *= dim
	}
	return n
}

// LoadedSegment is a segment ready for matching: its fused feature vector
// plus the identifiers needed to rank and persist results.
type LoadedSegment struct {
	ID       string
	SongID   string
	StartSec int
	Vector   []float64
}

// SimilarSegment is a resolved similarity result returned to callers.
type SimilarSegment struct {
	SegmentID string  `json:"segment_id"`
	SongID    string  `json:"song_id"`
	FromMs    int     `json:"from_time"`
	ToMs      int     `json:"to_time"`
	Distance  float64 `json:"distance"`
}
