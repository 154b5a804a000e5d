package acousticsim

import (
	"runtime"
	"time"
)

const (
	DefaultMatches      = 10
	DefaultBucketSize   = 5000
	DefaultMissingLimit = 1_000_000
	DefaultIdleInterval = 10 * time.Minute
	DefaultSampleRate   = 22050

	// SegmentSeconds is the length of one analysis window.
	SegmentSeconds = 5
)

type Config struct {
	Matches       int
	BucketSize    int
	MatchWorkers  int
	LoaderWorkers int
	LoadChunks    int
	MissingLimit  int
	IdleInterval  time.Duration
	DBPath        string
	SampleRate    int
	TempDir       string
	Logger        Logger
	Store         SegmentStore
	StoreOpener   StoreOpener
	Decoder       Decoder
	Extractor     Extractor
	Progress      ProgressFunc
}

type Option func(*Config)

func WithMatches(n int) Option {
	return func(c *Config) {
		c.Matches = n
	}
}

func WithBucketSize(n int) Option {
	return func(c *Config) {
		c.BucketSize = n
	}
}

func WithMatchWorkers(n int) Option {
	return func(c *Config) {
		c.MatchWorkers = n
	}
}

func WithLoaderWorkers(n int) Option {
	return func(c *Config) {
		c.LoaderWorkers = n
	}
}

// WithLoadChunks sets how many contiguous chunks AnalyzeSongs splits its
// input into.
func WithLoadChunks(n int) Option {
	return func(c *Config) {
		c.LoadChunks = n
	}
}

func WithMissingLimit(n int) Option {
	return func(c *Config) {
		c.MissingLimit = n
	}
}

// WithIdleInterval sets how long a catch-up pass sleeps when there is
// nothing to do.
func WithIdleInterval(d time.Duration) Option {
	return func(c *Config) {
		c.IdleInterval = d
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithStore sets the store used by the analyzer itself. Loader workers still
// go through the StoreOpener.
func WithStore(store SegmentStore) Option {
	return func(c *Config) {
		c.Store = store
	}
}

func WithStoreOpener(open StoreOpener) Option {
	return func(c *Config) {
		c.StoreOpener = open
	}
}

func WithDecoder(d Decoder) Option {
	return func(c *Config) {
		c.Decoder = d
	}
}

func WithExtractor(e Extractor) Option {
	return func(c *Config) {
		c.Extractor = e
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(c *Config) {
		c.Progress = fn
	}
}

func defaultConfig() *Config {
	cpus := runtime.NumCPU()
	return &Config{
		Matches:       DefaultMatches,
		BucketSize:    DefaultBucketSize,
		MatchWorkers:  cpus,
		LoaderWorkers: cpus,
		LoadChunks:    cpus,
		MissingLimit:  DefaultMissingLimit,
		IdleInterval:  DefaultIdleInterval,
		DBPath:        "acousticsim.sqlite3",
		SampleRate:    DefaultSampleRate,
		TempDir:       "/tmp",
	}
}

func (c *Config) normalize() {
	d := defaultConfig()
	if c.Matches < 1 {
		c.Matches = d.Matches
	}
	if c.BucketSize < 1 {
		c.BucketSize = d.BucketSize
	}
	if c.MatchWorkers < 1 {
		c.MatchWorkers = d.MatchWorkers
	}
	if c.LoaderWorkers < 1 {
		c.LoaderWorkers = d.LoaderWorkers
	}
	if c.LoadChunks < 1 {
		c.LoadChunks = d.LoadChunks
	}
	if c.MissingLimit < 1 {
		c.MissingLimit = d.MissingLimit
	}
	if c.IdleInterval < 0 {
		c.IdleInterval = 0
	}
	if c.SampleRate < 1 {
		c.SampleRate = d.SampleRate
	}
}
