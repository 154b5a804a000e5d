// Package storage holds the segment store backends.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/AcousticSim/pkg/models"
)

const DefaultDBFile = "acousticsim.sqlite3"

var ErrNotFound = errors.New("storage: segment not found")

// SQLiteStore keeps segments in a single SQLite table. Rows are enumerated
// in insertion order through the autoincrement Seq column.
type SQLiteStore struct {
	DB *gorm.DB
	db *sql.DB
}

type SegmentRecord struct {
	Seq          uint   `gorm:"primaryKey;autoIncrement"`
	SegmentID    string `gorm:"type:varchar(36);uniqueIndex:idx_segment_id"`
	SongID       string `gorm:"type:varchar(64);index:idx_song_time,priority:1"`
	TimeFrom     int    `gorm:"index:idx_song_time,priority:2"`
	TimeTo       int
	MFCC         []byte
	Chroma       []byte
	Tempogram    []byte
	Similar      []models.SimilarEntry `gorm:"serializer:json"`
	SimilarCount int                   `gorm:"index:idx_similar_count"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SegmentRecord) TableName() string { return "song_segments" }

func (r SegmentRecord) toModel() models.Segment {
	return models.Segment{
		ID:        r.SegmentID,
		SongID:    r.SongID,
		TimeFrom:  r.TimeFrom,
		TimeTo:    r.TimeTo,
		MFCC:      r.MFCC,
		Chroma:    r.Chroma,
		Tempogram: r.Tempogram,
		Similar:   r.Similar,
	}
}

func toModels(recs []SegmentRecord) []models.Segment {
	out := make([]models.Segment, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out
}

// OpenSQLite opens (creating if needed) the segment database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&SegmentRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{DB: db, db: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Add(ctx context.Context, seg models.Segment) (string, error) {
	rec := SegmentRecord{
		SegmentID:    uuid.NewString(),
		SongID:       seg.SongID,
		TimeFrom:     seg.TimeFrom,
		TimeTo:       seg.TimeTo,
		MFCC:         seg.MFCC,
		Chroma:       seg.Chroma,
		Tempogram:    seg.Tempogram,
		Similar:      seg.Similar,
		SimilarCount: len(seg.Similar),
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("inserting segment: %w", err)
	}
	return rec.SegmentID, nil
}

func (s *SQLiteStore) GetAllBySongID(ctx context.Context, songID string) ([]models.Segment, error) {
	var recs []SegmentRecord
	err := s.DB.WithContext(ctx).
		Where("song_id = ?", songID).
		Order("time_from").Order("seq").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("querying segments of song %s: %w", songID, err)
	}
	return toModels(recs), nil
}

func (s *SQLiteStore) GetByIDs(ctx context.Context, ids []string) ([]models.Segment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []SegmentRecord
	if err := s.DB.WithContext(ctx).Where("segment_id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("querying segments by id: %w", err)
	}
	return toModels(recs), nil
}

func (s *SQLiteStore) GetAllInRange(ctx context.Context, start, end int) ([]models.Segment, error) {
	if end <= start {
		return nil, nil
	}
	var recs []SegmentRecord
	err := s.DB.WithContext(ctx).
		Order("seq").
		Offset(start).Limit(end - start).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("querying segments [%d, %d): %w", start, end, err)
	}
	return toModels(recs), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&SegmentRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting segments: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) UpdateSimilar(ctx context.Context, id string, similar []models.SimilarEntry) error {
	res := s.DB.WithContext(ctx).
		Model(&SegmentRecord{}).
		Where("segment_id = ?", id).
		Select("Similar", "SimilarCount", "UpdatedAt").
		Updates(&SegmentRecord{Similar: similar, SimilarCount: len(similar), UpdatedAt: time.Now()})
	if res.Error != nil {
		return fmt.Errorf("updating similar of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) FindIncomplete(ctx context.Context, matches, limit int) ([]models.Segment, error) {
	var recs []SegmentRecord
	err := s.DB.WithContext(ctx).
		Where("similar_count < ?", matches).
		Order("seq").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("querying incomplete segments: %w", err)
	}
	return toModels(recs), nil
}

// CountIncomplete counts segments holding fewer than matches entries.
func (s *SQLiteStore) CountIncomplete(ctx context.Context, matches int) (int, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&SegmentRecord{}).
		Where("similar_count < ?", matches).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting incomplete segments: %w", err)
	}
	return int(n), nil
}

// SongCount returns the number of distinct songs with stored segments.
func (s *SQLiteStore) SongCount(ctx context.Context) (int, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&SegmentRecord{}).Distinct("song_id").Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting songs: %w", err)
	}
	return int(n), nil
}
