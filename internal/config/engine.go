package config

import (
	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/logger"
)

// StoreOpener returns the segment store opener for the configured backend.
func (c *Config) StoreOpener() acousticsim.StoreOpener {
	if c.Backend == BackendMongo {
		return acousticsim.NewMongoOpener(c.MongoConnectionURI(), c.MongoDB)
	}
	return acousticsim.NewSQLiteOpener(c.DBPath)
}

// Logger applies log_level to the process logger and returns it.
func (c *Config) Logger() *logger.Logger {
	log := logger.GetLogger()
	log.SetLevel(logger.ParseLevel(c.LogLevel))
	return log
}

// ServiceOptions translates the configuration into engine options. Callers
// append their own options (progress reporting, workers) after these.
func (c *Config) ServiceOptions() []acousticsim.Option {
	return []acousticsim.Option{
		acousticsim.WithStoreOpener(c.StoreOpener()),
		acousticsim.WithDBPath(c.DBPath),
		acousticsim.WithMatches(c.SimilarityMatches),
		acousticsim.WithBucketSize(c.SimilarityBucketSize),
		acousticsim.WithSampleRate(c.SampleRate),
		acousticsim.WithIdleInterval(c.IdleInterval),
		acousticsim.WithTempDir(c.TempDir),
		acousticsim.WithLogger(c.Logger()),
	}
}
