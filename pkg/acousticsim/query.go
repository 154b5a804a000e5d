package acousticsim

import (
	"context"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// QuerySimilar returns the stored similarity list of the song's segment
// starting closest to fromMs, resolved to full segment references. It
// returns nil when the song has no segments.
func (s *similarityService) QuerySimilar(ctx context.Context, songID string, fromMs int) ([]models.SimilarSegment, error) {
	segs, err := s.store.GetAllBySongID(ctx, songID)
	if err != nil {
		return nil, storeError("QuerySimilar", err)
	}
	if len(segs) == 0 {
		return nil, nil
	}

	closest := segs[0]
	for _, seg := range segs[1:] {
		if abs(seg.TimeFrom-fromMs) < abs(closest.TimeFrom-fromMs) {
			closest = seg
		}
	}

	out := make([]models.SimilarSegment, 0, len(closest.Similar))
	if len(closest.Similar) == 0 {
		return out, nil
	}

	ids := make([]string, len(closest.Similar))
	for i, e := range closest.Similar {
		ids[i] = e.ID
	}
	full, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("QuerySimilar", err)
	}
	byID := make(map[string]models.Segment, len(full))
	for _, seg := range full {
		byID[seg.ID] = seg
	}

	for _, e := range closest.Similar {
		seg, ok := byID[e.ID]
		if !ok {
			s.log.Debugf("similar segment %s of %s no longer exists", e.ID, closest.ID)
			continue
		}
		out = append(out, models.SimilarSegment{
			SegmentID: seg.ID,
			SongID:    seg.SongID,
			FromMs:    seg.TimeFrom,
			ToMs:      seg.TimeTo,
			Distance:  e.Distance,
		})
	}
	return out, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
