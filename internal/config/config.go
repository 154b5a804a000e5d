// Package config loads process configuration for the CLI and server from a
// YAML file, an optional .env file and ACOUSTIC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

type Config struct {
	// Storage
	Backend   string `yaml:"backend"`
	DBPath    string `yaml:"db_path"`
	MongoURI  string `yaml:"mongo_uri"`
	MongoHost string `yaml:"mongo_host"`
	MongoPort int    `yaml:"mongo_port"`
	MongoUser string `yaml:"mongo_user"`
	MongoPass string `yaml:"mongo_pass"`
	MongoDB   string `yaml:"mongo_db"`

	// Similarity engine
	SimilarityMatches    int           `yaml:"similarity_matches"`
	SimilarityBucketSize int           `yaml:"similarity_bucket_size"`
	SampleRate           int           `yaml:"sample_rate"`
	IdleInterval         time.Duration `yaml:"idle_interval"`
	TempDir              string        `yaml:"temp_dir"`

	// REST API
	RESTHost string `yaml:"rest_api_host_url"`
	RESTPort int    `yaml:"rest_api_host_port"`

	// Catch-up daemon
	LibraryDir     string `yaml:"library_dir"`
	RescanSchedule string `yaml:"rescan_schedule"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file or variable
// overrides a value.
func Default() *Config {
	return &Config{
		Backend:              BackendSQLite,
		DBPath:               "acousticsim.sqlite3",
		MongoHost:            "localhost",
		MongoPort:            27017,
		MongoDB:              "acousticsim",
		SimilarityMatches:    10,
		SimilarityBucketSize: 5000,
		SampleRate:           22050,
		IdleInterval:         10 * time.Minute,
		TempDir:              os.TempDir(),
		RESTHost:             "0.0.0.0",
		RESTPort:             8080,
		RescanSchedule:       "@every 1h",
		LogLevel:             "info",
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides. A .env file in the working directory is loaded
// first if present; variables already set take precedence over it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ACOUSTIC_BACKEND":         &c.Backend,
		"ACOUSTIC_DB_PATH":         &c.DBPath,
		"ACOUSTIC_MONGO_URI":       &c.MongoURI,
		"ACOUSTIC_MONGO_HOST":      &c.MongoHost,
		"ACOUSTIC_MONGO_USER":      &c.MongoUser,
		"ACOUSTIC_MONGO_PASS":      &c.MongoPass,
		"ACOUSTIC_MONGO_DB":        &c.MongoDB,
		"ACOUSTIC_TEMP_DIR":        &c.TempDir,
		"ACOUSTIC_HOST":            &c.RESTHost,
		"ACOUSTIC_LIBRARY_DIR":     &c.LibraryDir,
		"ACOUSTIC_RESCAN_SCHEDULE": &c.RescanSchedule,
		"LOG_LEVEL":                &c.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ACOUSTIC_MONGO_PORT":  &c.MongoPort,
		"ACOUSTIC_MATCHES":     &c.SimilarityMatches,
		"ACOUSTIC_BUCKET_SIZE": &c.SimilarityBucketSize,
		"ACOUSTIC_SAMPLE_RATE": &c.SampleRate,
		"ACOUSTIC_PORT":        &c.RESTPort,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v := os.Getenv("ACOUSTIC_IDLE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ACOUSTIC_IDLE_INTERVAL: %w", err)
		}
		c.IdleInterval = d
	}
	return nil
}

// Validate checks value ranges and the backend name.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite backend")
		}
	case BackendMongo:
		if c.MongoURI == "" && c.MongoHost == "" {
			return errors.New("mongo_uri or mongo_host is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.SimilarityMatches < 1 {
		return fmt.Errorf("similarity_matches must be positive, got %d", c.SimilarityMatches)
	}
	if c.SimilarityBucketSize < 1 {
		return fmt.Errorf("similarity_bucket_size must be positive, got %d", c.SimilarityBucketSize)
	}
	if c.SampleRate < 1 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.RESTPort < 1 || c.RESTPort > 65535 {
		return fmt.Errorf("rest_api_host_port out of range: %d", c.RESTPort)
	}
	return nil
}

// MongoConnectionURI returns mongo_uri, or builds one from the host, port
// and credential keys.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.MongoHost, strconv.Itoa(c.MongoPort)),
	}
	if c.MongoUser != "" {
		u.User = url.UserPassword(c.MongoUser, c.MongoPass)
	}
	return u.String()
}

// Addr is the REST listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.RESTHost, strconv.Itoa(c.RESTPort))
}
