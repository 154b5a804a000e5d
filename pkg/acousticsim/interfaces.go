package acousticsim

import (
	"context"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

type Service interface {
	// AnalyzeSongs loads (extracting when needed) every song and computes
	// similarity lists for all of their segments.
	AnalyzeSongs(ctx context.Context, songs []models.Song) error
	// AnalyzeSegments matches the given segments against the whole corpus
	// and persists the resulting similarity lists in both directions.
	AnalyzeSegments(ctx context.Context, segments []models.LoadedSegment) error
	// AnalyzeMissingSimilar runs one catch-up pass over segments whose list
	// is not full yet and reports how many segments it processed.
	AnalyzeMissingSimilar(ctx context.Context) (int, error)
	LoadSong(ctx context.Context, song models.Song, force bool) ([]models.LoadedSegment, error)
	QuerySimilar(ctx context.Context, songID string, fromMs int) ([]models.SimilarSegment, error)
	SegmentCount(ctx context.Context) (int, error)
	// Stats summarizes the corpus held by the store.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats is a corpus summary. Songs is -1 when the store cannot count them.
type Stats struct {
	Segments   int `json:"segments"`
	Songs      int `json:"songs"`
	Incomplete int `json:"incomplete"`
	Matches    int `json:"matches"`
}

// SongCounter is implemented by stores that can count distinct songs.
type SongCounter interface {
	SongCount(ctx context.Context) (int, error)
}

// SegmentStore is the persistence capability the engine runs against.
type SegmentStore interface {
	// Add persists a new segment and returns its assigned id.
	Add(ctx context.Context, seg models.Segment) (string, error)
	// GetAllBySongID returns a song's segments ordered by time_from.
	GetAllBySongID(ctx context.Context, songID string) ([]models.Segment, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Segment, error)
	// GetAllInRange returns the segments at positions [start, end) of a
	// stable insertion-order enumeration.
	GetAllInRange(ctx context.Context, start, end int) ([]models.Segment, error)
	Count(ctx context.Context) (int, error)
	UpdateSimilar(ctx context.Context, id string, similar []models.SimilarEntry) error
	// FindIncomplete returns up to limit segments holding fewer than
	// matches similarity entries.
	FindIncomplete(ctx context.Context, matches, limit int) ([]models.Segment, error)
	CountIncomplete(ctx context.Context, matches int) (int, error)
	Close() error
}

// StoreOpener opens an independent store connection. Loader workers each
// open their own.
type StoreOpener func() (SegmentStore, error)

// Decoder turns an audio file into mono samples at the requested rate.
type Decoder interface {
	Decode(ctx context.Context, path string, sampleRate int) ([]float64, int, error)
}

// Extractor computes the three descriptors of one analysis window.
type Extractor interface {
	Extract(window []float64, sampleRate int) (mfcc, chroma, tempogram models.Descriptor, err error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// ProgressFunc observes long-running stages. stage is one of "load",
// "bucket" or "merge".
type ProgressFunc func(stage string, done, total int)
