package acousticsim

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// AnalyzeSongs loads every song in parallel chunks and runs one similarity
// pass over all of their segments.
func (s *similarityService) AnalyzeSongs(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	s.log.Infof("Loading %d songs", len(songs))

	chunks := splitChunks(songs, s.config.LoadChunks)
	results := make([][]models.LoadedSegment, len(chunks))

	var done atomic.Int64
	tick := func() {
		s.progress("load", int(done.Add(1)), len(songs))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			pool := newLoaderPool(s, len(chunk), tick)
			if err := pool.Start(gctx, min(len(chunk), s.config.LoaderWorkers)); err != nil {
				return err
			}
			for j, song := range chunk {
				pool.Submit(loadJob{index: j, song: song})
			}
			segs, err := pool.Stop()
			results[i] = segs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return WrapError("AnalyzeSongs", err)
	}

	var all []models.LoadedSegment
	for _, r := range results {
		all = append(all, r...)
	}
	s.log.Infof("Loaded %d segments from %d songs", len(all), len(songs))
	return s.AnalyzeSegments(ctx, all)
}

// AnalyzeSegments matches segs against every bucket of the store, merges the
// candidates per probe and persists both directions of every accepted match.
func (s *similarityService) AnalyzeSegments(ctx context.Context, segs []models.LoadedSegment) error {
	if len(segs) == 0 {
		return nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return storeError("Count", err)
	}
	size := s.config.BucketSize
	buckets := (count + size - 1) / size
	s.log.Infof("Matching %d segments against %d stored segments in %d buckets", len(segs), count, buckets)

	collected := make([][]Candidate, len(segs))
	for b := 0; b < buckets; b++ {
		if err := ctx.Err(); err != nil {
			return WrapError("AnalyzeSegments", err)
		}

		bk, err := s.buildBucket(ctx, b)
		switch {
		case errors.Is(err, ErrIndexConstruction):
			s.log.Warnf("skipping bucket %d: %v", b, err)
		case err != nil:
			return WrapError("AnalyzeSegments", err)
		default:
			found := s.matchBucket(bk, segs)
			for i := range segs {
				collected[i] = append(collected[i], found[i]...)
			}
		}
		s.progress("bucket", b+1, buckets)
	}

	for i, probe := range segs {
		best := bestMatches(probe, collected[i], s.config.Matches)
		if err := s.reconcile(ctx, probe, best); err != nil {
			return WrapError("AnalyzeSegments", err)
		}
		s.progress("merge", i+1, len(segs))
	}
	s.log.Infof("Updated similarity for %d segments", len(segs))
	return nil
}

// AnalyzeMissingSimilar runs one catch-up pass. When there is nothing to do
// it sleeps for the idle interval instead, so calling it in a loop never
// spins.
func (s *similarityService) AnalyzeMissingSimilar(ctx context.Context) (int, error) {
	pending, err := s.store.FindIncomplete(ctx, s.config.Matches, s.config.MissingLimit)
	if err != nil {
		return 0, storeError("FindIncomplete", err)
	}

	segs := make([]models.LoadedSegment, 0, len(pending))
	for _, seg := range pending {
		if !seg.FeaturesReady() {
			s.log.Debugf("segment %s has no features yet, deferring the rest", seg.ID)
			break
		}
		ls, err := fuseSegment(seg)
		if err != nil {
			s.log.Warnf("skipping segment %s: %v", seg.ID, err)
			continue
		}
		segs = append(segs, ls)
	}

	s.log.Infof("Updating similar for %d segments", len(segs))
	if len(segs) == 0 {
		return 0, s.idle(ctx)
	}
	if err := s.AnalyzeSegments(ctx, segs); err != nil {
		return 0, err
	}
	return len(segs), nil
}

func (s *similarityService) idle(ctx context.Context) error {
	t := time.NewTimer(s.config.IdleInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// splitChunks cuts songs into at most n contiguous, nearly equal chunks.
func splitChunks(songs []models.Song, n int) [][]models.Song {
	if n > len(songs) {
		n = len(songs)
	}
	if n < 1 {
		n = 1
	}
	size := (len(songs) + n - 1) / n
	var chunks [][]models.Song
	for start := 0; start < len(songs); start += size {
		chunks = append(chunks, songs[start:min(start+size, len(songs))])
	}
	return chunks
}
