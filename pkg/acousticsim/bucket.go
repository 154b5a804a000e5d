package acousticsim

import (
	"context"
	"fmt"

	"github.com/himanishpuri/AcousticSim/internal/lsh"
	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// bucket is the ANN index over one contiguous range of the store. It lives
// for the duration of one bucket iteration.
type bucket struct {
	index   int
	entries []models.LoadedSegment
	query   *lsh.Query
}

// buildBucket loads bucket b, drops segments without usable features and
// indexes the rest.
func (s *similarityService) buildBucket(ctx context.Context, b int) (*bucket, error) {
	size := s.config.BucketSize
	rows, err := s.store.GetAllInRange(ctx, b*size, (b+1)*size)
	if err != nil {
		return nil, storeError("GetAllInRange", err)
	}

	entries := make([]models.LoadedSegment, 0, len(rows))
	for _, row := range rows {
		if !row.FeaturesReady() {
			continue
		}
		ls, err := fuseSegment(row)
		if err != nil {
			s.log.Warnf("bucket %d: skipping segment %s: %v", b, row.ID, err)
			continue
		}
		entries = append(entries, ls)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: bucket %d has no usable segments (%d rows)", ErrIndexConstruction, b, len(rows))
	}

	vectors := make([][]float64, len(entries))
	for i, e := range entries {
		vectors[i] = e.Vector
	}
	ix, err := lsh.Build(vectors, lsh.DefaultParams())
	if err != nil {
		return nil, fmt.Errorf("%w: bucket %d: %w", ErrIndexConstruction, b, err)
	}

	s.log.Debugf("bucket %d: indexed %d of %d segments (dim %d)", b, len(entries), len(rows), ix.Dimension())
	return &bucket{
		index:   b,
		entries: entries,
		query:   ix.NewQuery(lsh.DefaultNumProbes),
	}, nil
}
