package acousticsim

import (
	"context"
	"time"

	"github.com/himanishpuri/AcousticSim/internal/storage"
)

// NewSQLiteOpener returns an opener for the SQLite segment store at dbPath.
// Every call opens a separate connection pool.
func NewSQLiteOpener(dbPath string) StoreOpener {
	return func() (SegmentStore, error) {
		return storage.OpenSQLite(dbPath)
	}
}

// NewMongoOpener returns an opener for the MongoDB segment store. Every call
// dials its own client.
func NewMongoOpener(uri, database string) StoreOpener {
	return func() (SegmentStore, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.OpenMongo(ctx, uri, database)
	}
}
