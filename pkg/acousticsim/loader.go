package acousticsim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

func (s *similarityService) LoadSong(ctx context.Context, song models.Song, force bool) ([]models.LoadedSegment, error) {
	return s.loadSong(ctx, s.store, song, force)
}

// loadSong returns the matching tuples of one song, extracting and persisting
// its segments first when the store has none (or force is set).
func (s *similarityService) loadSong(ctx context.Context, store SegmentStore, song models.Song, force bool) ([]models.LoadedSegment, error) {
	existing, err := store.GetAllBySongID(ctx, song.ID)
	if err != nil {
		return nil, storeError("LoadSong", err)
	}
	if len(existing) > 0 && !force {
		return s.fuseExisting(song, existing), nil
	}
	return s.extractSong(ctx, store, song)
}

func (s *similarityService) fuseExisting(song models.Song, existing []models.Segment) []models.LoadedSegment {
	out := make([]models.LoadedSegment, 0, len(existing))
	for _, seg := range existing {
		// A segment without features means extraction for this song is
		// still in progress; the rest is picked up by a later catch-up pass.
		if !seg.FeaturesReady() {
			s.log.Debugf("song %s: segment %s has no features yet, stopping at %d/%d", song.ID, seg.ID, len(out), len(existing))
			break
		}
		ls, err := fuseSegment(seg)
		if err != nil {
			s.log.Warnf("song %s: skipping segment %s: %v", song.ID, seg.ID, err)
			continue
		}
		out = append(out, ls)
	}
	return out
}

func (s *similarityService) extractSong(ctx context.Context, store SegmentStore, song models.Song) ([]models.LoadedSegment, error) {
	samples, sr, err := s.config.Decoder.Decode(ctx, song.Path, s.config.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", song.Path, err)
	}

	window := SegmentSeconds * sr
	if window <= 0 {
		return nil, fmt.Errorf("decoding %s: invalid sample rate %d", song.Path, sr)
	}
	n := len(samples) / window
	out := make([]models.LoadedSegment, 0, n)

	for i := 0; i < n; i++ {
		mfcc, chroma, tempo, err := s.config.Extractor.Extract(samples[i*window:(i+1)*window], sr)
		if err != nil {
			s.log.Warnf("song %s: window %d: extraction failed: %v", song.ID, i, err)
			continue
		}
		vec, err := Fuse(mfcc, chroma, tempo)
		if err != nil {
			s.log.Warnf("song %s: window %d: %v", song.ID, i, err)
			continue
		}

		seg := models.Segment{
			SongID:    song.ID,
			TimeFrom:  i * SegmentSeconds * 1000,
			TimeTo:    (i + 1) * SegmentSeconds * 1000,
			MFCC:      EncodeDescriptor(mfcc),
			Chroma:    EncodeDescriptor(chroma),
			Tempogram: EncodeDescriptor(tempo),
		}
		id, err := store.Add(ctx, seg)
		if err != nil {
			return nil, storeError("LoadSong", err)
		}
		out = append(out, models.LoadedSegment{
			ID:       id,
			SongID:   song.ID,
			StartSec: i * SegmentSeconds,
			Vector:   vec,
		})
	}

	s.log.Infof("song %s: extracted %d segments", song.ID, len(out))
	return out, nil
}

type loadJob struct {
	index int
	song  models.Song
}

// loaderPool loads one chunk of songs. Each worker owns a store connection
// for the lifetime of the pool.
type loaderPool struct {
	svc     *similarityService
	jobs    chan loadJob
	wg      sync.WaitGroup
	stores  []SegmentStore
	results [][]models.LoadedSegment
	onDone  func()

	mu   sync.Mutex
	errs []error
}

func newLoaderPool(svc *similarityService, songs int, onDone func()) *loaderPool {
	return &loaderPool{
		svc:     svc,
		jobs:    make(chan loadJob, songs),
		results: make([][]models.LoadedSegment, songs),
		onDone:  onDone,
	}
}

// Start opens one store per worker and launches the worker goroutines.
func (p *loaderPool) Start(ctx context.Context, workers int) error {
	for i := 0; i < workers; i++ {
		store, err := p.svc.open()
		if err != nil {
			p.closeStores()
			return storeError("open", err)
		}
		p.stores = append(p.stores, store)
	}

	for _, store := range p.stores {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(ctx, store, job)
			}
		}()
	}
	return nil
}

// Submit queues a song. The queue holds the whole chunk, so it never blocks.
func (p *loaderPool) Submit(job loadJob) {
	p.jobs <- job
}

// Stop waits for the queued songs, closes the worker stores and returns the
// loaded segments in submission order.
func (p *loaderPool) Stop() ([]models.LoadedSegment, error) {
	close(p.jobs)
	p.wg.Wait()
	p.closeStores()

	var out []models.LoadedSegment
	for _, r := range p.results {
		out = append(out, r...)
	}
	return out, errors.Join(p.errs...)
}

func (p *loaderPool) processJob(ctx context.Context, store SegmentStore, job loadJob) {
	if p.onDone != nil {
		defer p.onDone()
	}
	if err := ctx.Err(); err != nil {
		p.fail(err)
		return
	}

	segs, err := p.svc.loadSong(ctx, store, job.song, false)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			p.fail(err)
			return
		}
		p.svc.log.Errorf("song %s: %v", job.song.ID, err)
		return
	}
	p.results[job.index] = segs
}

func (p *loaderPool) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

func (p *loaderPool) closeStores() {
	for _, store := range p.stores {
		if err := store.Close(); err != nil {
			p.svc.log.Warnf("closing loader store: %v", err)
		}
	}
	p.stores = nil
}
