package acousticsim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/himanishpuri/AcousticSim/pkg/logger"
	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// memStore is an in-memory SegmentStore that keeps insertion order.
type memStore struct {
	mu      sync.Mutex
	segs    []models.Segment
	pos     map[string]int
	nextID  int
	updates int
	failAll error

	opens  atomic.Int32
	closes atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{pos: make(map[string]int)}
}

func cloneSegment(s models.Segment) models.Segment {
	s.Similar = append([]models.SimilarEntry(nil), s.Similar...)
	return s
}

func (m *memStore) Add(_ context.Context, seg models.Segment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return "", m.failAll
	}
	m.nextID++
	seg.ID = fmt.Sprintf("seg-%04d", m.nextID)
	m.pos[seg.ID] = len(m.segs)
	m.segs = append(m.segs, cloneSegment(seg))
	return seg.ID, nil
}

func (m *memStore) GetAllBySongID(_ context.Context, songID string) ([]models.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []models.Segment
	for _, s := range m.segs {
		if s.SongID == songID {
			out = append(out, cloneSegment(s))
		}
	}
	return out, nil
}

func (m *memStore) GetByIDs(_ context.Context, ids []string) ([]models.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []models.Segment
	for _, id := range ids {
		if i, ok := m.pos[id]; ok {
			out = append(out, cloneSegment(m.segs[i]))
		}
	}
	return out, nil
}

func (m *memStore) GetAllInRange(_ context.Context, start, end int) ([]models.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	start = min(start, len(m.segs))
	end = min(end, len(m.segs))
	out := make([]models.Segment, 0, end-start)
	for _, s := range m.segs[start:end] {
		out = append(out, cloneSegment(s))
	}
	return out, nil
}

func (m *memStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return 0, m.failAll
	}
	return len(m.segs), nil
}

func (m *memStore) UpdateSimilar(_ context.Context, id string, similar []models.SimilarEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	i, ok := m.pos[id]
	if !ok {
		return errors.New("segment not found")
	}
	m.segs[i].Similar = append([]models.SimilarEntry(nil), similar...)
	m.updates++
	return nil
}

func (m *memStore) FindIncomplete(_ context.Context, matches, limit int) ([]models.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []models.Segment
	for _, s := range m.segs {
		if len(out) == limit {
			break
		}
		if len(s.Similar) < matches {
			out = append(out, cloneSegment(s))
		}
	}
	return out, nil
}

func (m *memStore) CountIncomplete(_ context.Context, matches int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return 0, m.failAll
	}
	n := 0
	for _, s := range m.segs {
		if len(s.Similar) < matches {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Close() error { return nil }

// opener hands out connections that count opens and closes.
func (m *memStore) opener() StoreOpener {
	return func() (SegmentStore, error) {
		m.opens.Add(1)
		return &memConn{memStore: m}, nil
	}
}

type memConn struct {
	*memStore
}

func (c *memConn) Close() error {
	c.closes.Add(1)
	return nil
}

func (m *memStore) get(t *testing.T, id string) models.Segment {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.pos[id]
	if !ok {
		t.Fatalf("segment %s not in store", id)
	}
	return cloneSegment(m.segs[i])
}

func (m *memStore) all() []models.Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Segment, len(m.segs))
	for i, s := range m.segs {
		out[i] = cloneSegment(s)
	}
	return out
}

// addScaled stores a segment whose three descriptors all hold the single
// value scale, so its fused vector is scale*(1, 133, 280).
func (m *memStore) addScaled(t *testing.T, songID string, timeFrom int, scale float64) string {
	t.Helper()
	d := EncodeDescriptor(models.NewDescriptor([]float64{scale}))
	id, err := m.Add(context.Background(), models.Segment{
		SongID:    songID,
		TimeFrom:  timeFrom,
		TimeTo:    timeFrom + SegmentSeconds*1000,
		MFCC:      d,
		Chroma:    d,
		Tempogram: d,
	})
	if err != nil {
		t.Fatalf("add segment: %v", err)
	}
	return id
}

// addPending stores a segment whose features have not been extracted yet.
func (m *memStore) addPending(t *testing.T, songID string, timeFrom int) string {
	t.Helper()
	id, err := m.Add(context.Background(), models.Segment{SongID: songID, TimeFrom: timeFrom, TimeTo: timeFrom + 5000})
	if err != nil {
		t.Fatalf("add segment: %v", err)
	}
	return id
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

// fakeDecoder serves fixed sample buffers by path.
type fakeDecoder struct {
	mu    sync.Mutex
	songs map[string][]float64
	calls int
}

func (d *fakeDecoder) Decode(_ context.Context, path string, sampleRate int) ([]float64, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	samples, ok := d.songs[path]
	if !ok {
		return nil, 0, fmt.Errorf("no such file %s", path)
	}
	return samples, sampleRate, nil
}

// firstSampleExtractor derives every descriptor from the window's first
// sample and rejects windows starting with a negative value.
type firstSampleExtractor struct{}

func (firstSampleExtractor) Extract(window []float64, _ int) (models.Descriptor, models.Descriptor, models.Descriptor, error) {
	if window[0] < 0 {
		return models.Descriptor{}, models.Descriptor{}, models.Descriptor{}, errors.New("silent window")
	}
	d := models.NewDescriptor([]float64{window[0]})
	return d, d, d, nil
}

func constantSamples(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}
