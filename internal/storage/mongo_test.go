package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

// setupMongo connects to the server named by ACOUSTIC_MONGO_URI using a
// throwaway database.
func setupMongo(t *testing.T) *MongoStore {
	t.Helper()

	uri := os.Getenv("ACOUSTIC_MONGO_URI")
	if uri == "" {
		t.Skip("ACOUSTIC_MONGO_URI not set, skipping MongoDB tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbName := fmt.Sprintf("acousticsim_test_%d", time.Now().UnixNano())
	store, err := OpenMongo(ctx, uri, dbName)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() {
		store.coll.Database().Drop(context.Background())
		store.Close()
	})
	return store
}

// TestMongoStoreRoundTrip tests the store operations against a live server
func TestMongoStoreRoundTrip(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	features := []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}
	var ids []string
	for i, song := range []string{"song-a", "song-a", "song-b"} {
		id, err := store.Add(ctx, models.Segment{
			SongID:    song,
			TimeFrom:  i * 5000,
			TimeTo:    (i + 1) * 5000,
			MFCC:      features,
			Chroma:    features,
			Tempogram: features,
		})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		ids = append(ids, id)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Expected 3 segments, got %d (%v)", n, err)
	}

	segs, err := store.GetAllInRange(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetAllInRange failed: %v", err)
	}
	if len(segs) != 2 || segs[0].ID != ids[1] || segs[1].ID != ids[2] {
		t.Errorf("Unexpected range result %+v", segs)
	}

	bySong, err := store.GetAllBySongID(ctx, "song-a")
	if err != nil || len(bySong) != 2 {
		t.Fatalf("Expected 2 segments for song-a, got %d (%v)", len(bySong), err)
	}
	if !bySong[0].FeaturesReady() {
		t.Error("Expected features to round trip")
	}

	if err := store.UpdateSimilar(ctx, ids[0], []models.SimilarEntry{{ID: ids[2], Distance: 0.5}}); err != nil {
		t.Fatalf("UpdateSimilar failed: %v", err)
	}

	incomplete, err := store.FindIncomplete(ctx, 1, 100)
	if err != nil {
		t.Fatalf("FindIncomplete failed: %v", err)
	}
	if len(incomplete) != 2 {
		t.Errorf("Expected 2 incomplete segments, got %d", len(incomplete))
	}
	count, err := store.CountIncomplete(ctx, 1)
	if err != nil || count != 2 {
		t.Errorf("Expected CountIncomplete to report 2, got %d (%v)", count, err)
	}
	if _, err := store.CountIncomplete(ctx, 0); err == nil {
		t.Error("Expected an error for non-positive matches")
	}

	got, err := store.GetByIDs(ctx, []string{ids[0], "not-an-object-id"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 1 || len(got[0].Similar) != 1 || got[0].Similar[0].ID != ids[2] {
		t.Errorf("Unexpected GetByIDs result %+v", got)
	}

	songs, err := store.SongCount(ctx)
	if err != nil || songs != 2 {
		t.Errorf("Expected 2 songs, got %d (%v)", songs, err)
	}
}
