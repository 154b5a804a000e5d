package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

const (
	DefaultMongoDatabase = "acousticsim"
	SegmentCollection    = "song_segmentation"
)

// MongoStore keeps one document per segment. Documents are enumerated in
// _id order, which follows insertion order for driver-generated ObjectIDs.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type segmentDoc struct {
	ID          primitive.ObjectID    `bson:"_id,omitempty"`
	SongID      string                `bson:"song_id"`
	TimeFrom    int                   `bson:"time_from"`
	TimeTo      int                   `bson:"time_to"`
	MFCC        []byte                `bson:"mfcc"`
	Chroma      []byte                `bson:"chroma"`
	Tempogram   []byte                `bson:"tempogram"`
	Similar     []models.SimilarEntry `bson:"similar"`
	LastUpdated time.Time             `bson:"last_updated"`
}

func (d segmentDoc) toModel() models.Segment {
	return models.Segment{
		ID:        d.ID.Hex(),
		SongID:    d.SongID,
		TimeFrom:  d.TimeFrom,
		TimeTo:    d.TimeTo,
		MFCC:      d.MFCC,
		Chroma:    d.Chroma,
		Tempogram: d.Tempogram,
		Similar:   d.Similar,
	}
}

// OpenMongo connects to uri and prepares the segment collection of database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	coll := client.Database(database).Collection(SegmentCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "song_id", Value: 1}, {Key: "time_from", Value: 1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating segment index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Add(ctx context.Context, seg models.Segment) (string, error) {
	doc := segmentDoc{
		SongID:      seg.SongID,
		TimeFrom:    seg.TimeFrom,
		TimeTo:      seg.TimeTo,
		MFCC:        seg.MFCC,
		Chroma:      seg.Chroma,
		Tempogram:   seg.Tempogram,
		Similar:     seg.Similar,
		LastUpdated: time.Now(),
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("inserting segment: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *MongoStore) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]models.Segment, error) {
	cur, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []segmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Segment, len(docs))
	for i, d := range docs {
		out[i] = d.toModel()
	}
	return out, nil
}

func (s *MongoStore) GetAllBySongID(ctx context.Context, songID string) ([]models.Segment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "time_from", Value: 1}, {Key: "_id", Value: 1}})
	segs, err := s.find(ctx, bson.M{"song_id": songID}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying segments of song %s: %w", songID, err)
	}
	return segs, nil
}

// GetByIDs ignores ids that are not valid ObjectIDs.
func (s *MongoStore) GetByIDs(ctx context.Context, ids []string) ([]models.Segment, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}
	segs, err := s.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("querying segments by id: %w", err)
	}
	return segs, nil
}

func (s *MongoStore) GetAllInRange(ctx context.Context, start, end int) ([]models.Segment, error) {
	if end <= start {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(start)).
		SetLimit(int64(end - start))
	segs, err := s.find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying segments [%d, %d): %w", start, end, err)
	}
	return segs, nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting segments: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) UpdateSimilar(ctx context.Context, id string, similar []models.SimilarEntry) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	update := bson.M{"$set": bson.M{"similar": similar, "last_updated": time.Now()}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("updating similar of %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// FindIncomplete selects segments whose list has no entry at position
// matches-1, which also matches documents without a list at all.
func (s *MongoStore) FindIncomplete(ctx context.Context, matches, limit int) ([]models.Segment, error) {
	if matches < 1 {
		return nil, errors.New("matches must be positive")
	}
	filter := incompleteFilter(matches)
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	segs, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying incomplete segments: %w", err)
	}
	return segs, nil
}

func (s *MongoStore) CountIncomplete(ctx context.Context, matches int) (int, error) {
	if matches < 1 {
		return 0, errors.New("matches must be positive")
	}
	n, err := s.coll.CountDocuments(ctx, incompleteFilter(matches))
	if err != nil {
		return 0, fmt.Errorf("counting incomplete segments: %w", err)
	}
	return int(n), nil
}

func incompleteFilter(matches int) bson.M {
	return bson.M{"similar." + strconv.Itoa(matches-1): bson.M{"$exists": false}}
}

func (s *MongoStore) SongCount(ctx context.Context) (int, error) {
	ids, err := s.coll.Distinct(ctx, "song_id", bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting songs: %w", err)
	}
	return len(ids), nil
}
