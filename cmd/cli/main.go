package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSim/internal/config"
	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
)

var (
	cfgFile    string
	dbPath     string
	backend    string
	logLevel   string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "acousticsim",
	Short: "AcousticSim - audio segment similarity engine",
	Long: `AcousticSim splits songs into five second segments, extracts MFCC,
chroma and tempogram descriptors for each one and keeps, for every segment,
a list of the closest segments belonging to other songs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides db_path)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend: sqlite or mongo (overrides backend)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")

	rootCmd.AddCommand(analyzeCmd, catchupCmd, similarCmd, statsCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openService builds the engine from the loaded configuration.
func openService(cfg *config.Config, extra ...acousticsim.Option) (acousticsim.Service, error) {
	svc, err := acousticsim.NewService(append(cfg.ServiceOptions(), extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
