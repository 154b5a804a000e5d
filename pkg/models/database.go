package models

// SimilarEntry is one ranked match stored in a segment's similar list.
type SimilarEntry struct {
	ID       string  `json:"id" bson:"id"`             // matched segment ID
	Distance float64 `json:"distance" bson:"distance"` // Euclidean distance in fused space
}

// Segment is a fixed-length slice of one song as persisted by a segment store.
// Descriptor blobs are raw little-endian float64 buffers; a nil or empty blob
// means extraction has not completed for this segment.
type Segment struct {
	ID        string
	SongID    string
	TimeFrom  int // ms, inclusive
	TimeTo    int // ms, exclusive
	MFCC      []byte
	Chroma    []byte
	Tempogram []byte
	Similar   []SimilarEntry
}

// FeaturesReady reports whether all three descriptor blobs are present.
func (s Segment) FeaturesReady() bool {
	return len(s.MFCC) > 0 && len(s.Chroma) > 0 && len(s.Tempogram) > 0
}
