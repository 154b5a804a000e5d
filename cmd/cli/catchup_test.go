package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/logger"
	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// passService records how many similarity passes overlap.
type passService struct {
	active    atomic.Int32
	maxActive atomic.Int32
	missing   atomic.Int32
	songs     atomic.Int32
	pending   int
}

func (s *passService) enter() {
	n := s.active.Add(1)
	for {
		cur := s.maxActive.Load()
		if n <= cur || s.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	s.active.Add(-1)
}

func (s *passService) AnalyzeSongs(context.Context, []models.Song) error {
	s.enter()
	s.songs.Add(1)
	return nil
}

func (s *passService) AnalyzeSegments(context.Context, []models.LoadedSegment) error { return nil }

func (s *passService) AnalyzeMissingSimilar(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.enter()
	s.missing.Add(1)
	return s.pending, nil
}

func (s *passService) LoadSong(context.Context, models.Song, bool) ([]models.LoadedSegment, error) {
	return nil, nil
}

func (s *passService) QuerySimilar(context.Context, string, int) ([]models.SimilarSegment, error) {
	return nil, nil
}

func (s *passService) SegmentCount(context.Context) (int, error) { return 0, nil }

func (s *passService) Stats(context.Context) (acousticsim.Stats, error) {
	return acousticsim.Stats{}, nil
}

func (s *passService) Close() error { return nil }

func quietLog() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func TestRescanWaitsForCatchupPass(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.wav"), []byte("RIFF"), 0o644))

	svc := &passService{pending: 1}
	var pass sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- catchupLoop(ctx, svc, &pass, time.Hour, quietLog()) }()

	r := &rescanner{svc: svc, dir: dir, log: quietLog(), pass: &pass}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				r.run(ctx)
			}
		}()
	}
	wg.Wait()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("catch-up loop did not stop")
	}

	assert.Positive(t, svc.songs.Load())
	assert.Positive(t, svc.missing.Load())
	assert.EqualValues(t, 1, svc.maxActive.Load())
}

func TestCatchupLoopStopsWhileIdle(t *testing.T) {
	svc := &passService{}
	var pass sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- catchupLoop(ctx, svc, &pass, time.Hour, quietLog()) }()

	require.Eventually(t, func() bool { return svc.missing.Load() > 0 }, 5*time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("catch-up loop did not stop")
	}
	// the idle wait ran outside the pass lock
	assert.True(t, pass.TryLock())
	assert.EqualValues(t, 1, svc.missing.Load())
}
