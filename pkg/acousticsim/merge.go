package acousticsim

import (
	"context"
	"sort"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// bestMatches keeps the closest matches candidates of probe that belong to
// another song. The list stays sorted; an equal distance never displaces an
// entry that was seen first.
func bestMatches(probe models.LoadedSegment, candidates []Candidate, matches int) []Candidate {
	best := make([]Candidate, 0, matches)
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if c.SongID == probe.SongID {
			continue
		}
		if _, dup := seen[c.SegmentID]; dup {
			continue
		}
		seen[c.SegmentID] = struct{}{}

		if len(best) == matches && c.Distance >= best[len(best)-1].Distance {
			continue
		}
		pos := sort.Search(len(best), func(i int) bool {
			return best[i].Distance > c.Distance
		})
		if len(best) < matches {
			best = append(best, Candidate{})
		}
		copy(best[pos+1:], best[pos:])
		best[pos] = c
	}
	return best
}

// mergeSimilar appends added to similar, keeps only the last occurrence of
// every id, sorts by distance and truncates to matches.
func mergeSimilar(similar, added []models.SimilarEntry, matches int) []models.SimilarEntry {
	all := make([]models.SimilarEntry, 0, len(similar)+len(added))
	all = append(append(all, similar...), added...)

	last := make(map[string]int, len(all))
	for i, e := range all {
		last[e.ID] = i
	}
	out := make([]models.SimilarEntry, 0, len(last))
	for i, e := range all {
		if last[e.ID] == i {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	if len(out) > matches {
		out = out[:matches]
	}
	return out
}

// reconcile adds the reverse entry to every matched segment, then merges
// best into the probe's stored list. Lists are re-read here so entries
// written by earlier probes of the same pass survive.
func (s *similarityService) reconcile(ctx context.Context, probe models.LoadedSegment, best []Candidate) error {
	ids := make([]string, 0, len(best)+1)
	ids = append(ids, probe.ID)
	for _, c := range best {
		ids = append(ids, c.SegmentID)
	}
	current, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return storeError("GetByIDs", err)
	}
	byID := make(map[string]models.Segment, len(current))
	for _, m := range current {
		byID[m.ID] = m
	}

	own := make([]models.SimilarEntry, 0, len(best))
	for _, c := range best {
		m, ok := byID[c.SegmentID]
		if !ok {
			s.log.Warnf("matched segment %s disappeared before merge", c.SegmentID)
			continue
		}
		if m.SongID == probe.SongID {
			continue
		}
		own = append(own, models.SimilarEntry{ID: c.SegmentID, Distance: c.Distance})
		reverse := []models.SimilarEntry{{ID: probe.ID, Distance: c.Distance}}
		if err := s.store.UpdateSimilar(ctx, m.ID, mergeSimilar(m.Similar, reverse, s.config.Matches)); err != nil {
			return storeError("UpdateSimilar", err)
		}
	}

	merged := mergeSimilar(byID[probe.ID].Similar, own, s.config.Matches)
	if err := s.store.UpdateSimilar(ctx, probe.ID, merged); err != nil {
		return storeError("UpdateSimilar", err)
	}
	return nil
}
