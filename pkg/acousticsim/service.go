package acousticsim

import (
	"context"
	"fmt"

	"github.com/himanishpuri/AcousticSim/internal/audio"
	"github.com/himanishpuri/AcousticSim/internal/dsp"
	"github.com/himanishpuri/AcousticSim/pkg/logger"
)

// similarityService is the default implementation of the Service interface.
type similarityService struct {
	store     SegmentStore
	open      StoreOpener
	ownsStore bool
	log       Logger
	config    *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.normalize()

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Decoder == nil {
		cfg.Decoder = audio.NewDecoder(cfg.TempDir)
	}
	if cfg.Extractor == nil {
		cfg.Extractor = dsp.NewExtractor()
	}

	open := cfg.StoreOpener
	if open == nil {
		if cfg.Store != nil {
			shared := cfg.Store
			open = func() (SegmentStore, error) { return nopCloseStore{shared}, nil }
		} else {
			open = NewSQLiteOpener(cfg.DBPath)
		}
	}

	svc := &similarityService{open: open, log: cfg.Logger, config: cfg}
	if cfg.Store != nil {
		svc.store = cfg.Store
	} else {
		store, err := open()
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		svc.store = store
		svc.ownsStore = true
	}
	return svc, nil
}

func (s *similarityService) SegmentCount(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, storeError("SegmentCount", err)
	}
	return n, nil
}

func (s *similarityService) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Songs: -1, Matches: s.config.Matches}

	var err error
	if st.Segments, err = s.store.Count(ctx); err != nil {
		return Stats{}, storeError("Stats", err)
	}
	if sc, ok := s.store.(SongCounter); ok {
		if st.Songs, err = sc.SongCount(ctx); err != nil {
			return Stats{}, storeError("Stats", err)
		}
	}
	if st.Incomplete, err = s.store.CountIncomplete(ctx, s.config.Matches); err != nil {
		return Stats{}, storeError("Stats", err)
	}
	return st, nil
}

// Close releases the store the service opened itself. A store passed in
// with WithStore stays open.
func (s *similarityService) Close() error {
	if !s.ownsStore {
		return nil
	}
	return s.store.Close()
}

func (s *similarityService) progress(stage string, done, total int) {
	if s.config.Progress != nil {
		s.config.Progress(stage, done, total)
	}
}

// nopCloseStore hands a caller-owned store to loader workers without letting
// them close it.
type nopCloseStore struct {
	SegmentStore
}

func (nopCloseStore) Close() error { return nil }
