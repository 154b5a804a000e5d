package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/himanishpuri/AcousticSim/internal/config"
	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/logger"
)

var (
	cfgFile        string
	allowedOrigins string
	uploadDir      string
	queueSize      int
)

func init() {
	flag.StringVar(&cfgFile, "config", "", "YAML config file")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.StringVar(&uploadDir, "uploads", "", "Directory for uploaded audio (default: library_dir or temp_dir/acousticsim-uploads)")
	flag.IntVar(&queueSize, "queue", 64, "Maximum number of queued analysis jobs")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	log := cfg.Logger()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	if uploadDir == "" {
		uploadDir = cfg.LibraryDir
	}
	if uploadDir == "" {
		uploadDir = filepath.Join(cfg.TempDir, "acousticsim-uploads")
	}

	service, err := acousticsim.NewService(cfg.ServiceOptions()...)
	if err != nil {
		logger.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := newAnalysisQueue(service, log, queueSize)
	queue.Start(ctx)
	defer queue.Stop()

	dbPath := ""
	if cfg.Backend == config.BackendSQLite {
		dbPath = cfg.DBPath
	}
	server := NewServer(service, &ServerConfig{
		Addr:           cfg.Addr(),
		Backend:        cfg.Backend,
		DBPath:         dbPath,
		UploadDir:      uploadDir,
		SampleRate:     cfg.SampleRate,
		AllowedOrigins: origins,
	}, log, queue)

	if err := server.Run(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		stop()
		queue.Stop()
		service.Close()
		os.Exit(1)
	}
	log.Infof("Server stopped")
}
