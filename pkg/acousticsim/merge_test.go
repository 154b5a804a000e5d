package acousticsim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

func candidateIDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.SegmentID
	}
	return ids
}

func TestBestMatches(t *testing.T) {
	probe := models.LoadedSegment{ID: "p", SongID: "A"}

	tests := []struct {
		name       string
		candidates []Candidate
		matches    int
		want       []string
	}{
		{
			name: "excludes own song and probe",
			candidates: []Candidate{
				{"p", "A", 0}, {"a2", "A", 0.1}, {"b1", "B", 0.5},
			},
			matches: 3,
			want:    []string{"b1"},
		},
		{
			name: "sorted insertion before full",
			candidates: []Candidate{
				{"b1", "B", 3}, {"c1", "C", 1}, {"d1", "D", 2},
			},
			matches: 5,
			want:    []string{"c1", "d1", "b1"},
		},
		{
			name: "evicts worst when strictly closer",
			candidates: []Candidate{
				{"b1", "B", 3}, {"c1", "C", 1}, {"d1", "D", 2}, {"e1", "E", 0.5},
			},
			matches: 2,
			want:    []string{"e1", "c1"},
		},
		{
			name: "equal distance keeps first seen",
			candidates: []Candidate{
				{"b1", "B", 1}, {"c1", "C", 1}, {"d1", "D", 1},
			},
			matches: 2,
			want:    []string{"b1", "c1"},
		},
		{
			name: "duplicate ids across buckets",
			candidates: []Candidate{
				{"b1", "B", 1}, {"c1", "C", 2}, {"b1", "B", 1},
			},
			matches: 5,
			want:    []string{"b1", "c1"},
		},
		{
			name:       "no eligible candidates",
			candidates: []Candidate{{"a2", "A", 0}},
			matches:    10,
			want:       []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bestMatches(probe, tt.candidates, tt.matches)
			assert.Equal(t, tt.want, candidateIDs(got))
			assert.LessOrEqual(t, len(got), tt.matches)
		})
	}
}

func TestMergeSimilarKeepsLatestOccurrence(t *testing.T) {
	existing := []models.SimilarEntry{{ID: "x", Distance: 1}, {ID: "p", Distance: 5}, {ID: "y", Distance: 2}}

	got := mergeSimilar(existing, []models.SimilarEntry{{ID: "p", Distance: 0.5}}, 10)
	assert.Equal(t, []models.SimilarEntry{{ID: "p", Distance: 0.5}, {ID: "x", Distance: 1}, {ID: "y", Distance: 2}}, got)

	// the input list is not modified
	assert.Equal(t, 5.0, existing[1].Distance)
}

func TestMergeSimilarTruncates(t *testing.T) {
	existing := []models.SimilarEntry{{ID: "x", Distance: 1}, {ID: "y", Distance: 2}}

	got := mergeSimilar(existing, []models.SimilarEntry{{ID: "p", Distance: 3}}, 2)
	assert.Equal(t, existing, got)

	got = mergeSimilar(existing, []models.SimilarEntry{{ID: "p", Distance: 1.5}}, 2)
	assert.Equal(t, []models.SimilarEntry{{ID: "x", Distance: 1}, {ID: "p", Distance: 1.5}}, got)
}

func TestMergeSimilarWithSeveralEntries(t *testing.T) {
	stored := []models.SimilarEntry{{ID: "r", Distance: 4}, {ID: "x", Distance: 2}}
	best := []models.SimilarEntry{{ID: "x", Distance: 3}, {ID: "y", Distance: 1}, {ID: "z", Distance: 5}}

	got := mergeSimilar(stored, best, 3)
	assert.Equal(t, []models.SimilarEntry{{ID: "y", Distance: 1}, {ID: "x", Distance: 3}, {ID: "r", Distance: 4}}, got)

	assert.Empty(t, mergeSimilar(nil, nil, 3))
}

func TestReconcileSkipsSameSongMatches(t *testing.T) {
	store := newMemStore()
	a0 := store.addScaled(t, "A", 0, 1)
	a5 := store.addScaled(t, "A", 5000, 1)
	b0 := store.addScaled(t, "B", 0, 2)
	svc := newTestService(t, store).(*similarityService)

	seg := models.LoadedSegment{ID: a0, SongID: "A"}
	best := []Candidate{
		{SegmentID: a5, SongID: "A", Distance: 0},
		{SegmentID: b0, SongID: "B", Distance: 1},
	}
	require.NoError(t, svc.reconcile(context.Background(), seg, best))

	assert.Equal(t, []models.SimilarEntry{{ID: b0, Distance: 1}}, store.get(t, a0).Similar)
	assert.Empty(t, store.get(t, a5).Similar)
	assert.Equal(t, []models.SimilarEntry{{ID: a0, Distance: 1}}, store.get(t, b0).Similar)
}

func TestSplitChunks(t *testing.T) {
	songs := make([]models.Song, 7)
	chunks := splitChunks(songs, 3)
	assert.Len(t, chunks, 3)
	assert.Equal(t, []int{3, 3, 1}, []int{len(chunks[0]), len(chunks[1]), len(chunks[2])})

	assert.Len(t, splitChunks(songs[:2], 8), 2)
	assert.Len(t, splitChunks(songs, 0), 1)
}
