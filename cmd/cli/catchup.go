package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/logger"
	"github.com/himanishpuri/AcousticSim/pkg/models"
	"github.com/himanishpuri/AcousticSim/pkg/utils"
)

var (
	catchupOnce     bool
	catchupWatch    string
	catchupSchedule string
)

var catchupCmd = &cobra.Command{
	Use:   "catchup",
	Short: "Fill similarity lists that are not full yet",
	Long: `Catchup repeatedly matches segments whose similarity list holds fewer
entries than configured, sleeping for idle_interval whenever nothing is
pending. With --watch, new audio files under the directory are analyzed on
the rescan schedule.`,
	Args: cobra.NoArgs,
	RunE: runCatchup,
}

func init() {
	catchupCmd.Flags().BoolVar(&catchupOnce, "once", false, "run a single pass and exit")
	catchupCmd.Flags().StringVar(&catchupWatch, "watch", "", "library directory to rescan (overrides library_dir)")
	catchupCmd.Flags().StringVar(&catchupSchedule, "schedule", "", "cron spec for rescans (overrides rescan_schedule)")
}

func runCatchup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if catchupWatch != "" {
		cfg.LibraryDir = catchupWatch
	}
	if catchupSchedule != "" {
		cfg.RescanSchedule = catchupSchedule
	}
	log := cfg.Logger().WithPrefix("catchup")

	// the loop below waits between passes itself, outside the pass lock
	svc, err := openService(cfg, acousticsim.WithIdleInterval(time.Nanosecond))
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	if catchupOnce {
		n, err := svc.AnalyzeMissingSimilar(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Processed %d segment(s)\n", n)
		return nil
	}

	var pass sync.Mutex
	if cfg.LibraryDir != "" {
		r := &rescanner{svc: svc, dir: cfg.LibraryDir, log: log, pass: &pass}
		c := cron.New()
		if _, err := c.AddFunc(cfg.RescanSchedule, func() { r.run(ctx) }); err != nil {
			return fmt.Errorf("invalid rescan schedule %q: %w", cfg.RescanSchedule, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		log.Infof("Watching %s (%s)", cfg.LibraryDir, cfg.RescanSchedule)
		go r.run(ctx)
	}

	return catchupLoop(ctx, svc, &pass, cfg.IdleInterval, log)
}

// catchupLoop runs catch-up passes until ctx is done, waiting idle between
// passes that found nothing. Each pass holds pass.
func catchupLoop(ctx context.Context, svc acousticsim.Service, pass *sync.Mutex, idle time.Duration, log *logger.Logger) error {
	for {
		pass.Lock()
		n, err := svc.AnalyzeMissingSimilar(ctx)
		pass.Unlock()
		switch {
		case ctx.Err() != nil:
			log.Infof("Stopping")
			return nil
		case err != nil:
			return err
		case n > 0:
			log.Infof("Processed %d segment(s)", n)
			continue
		}

		t := time.NewTimer(idle)
		select {
		case <-ctx.Done():
			t.Stop()
			log.Infof("Stopping")
			return nil
		case <-t.C:
		}
	}
}

// rescanner analyzes library files whose song has no stored segments yet.
// Overlapping runs are skipped; the analysis itself waits for pass.
type rescanner struct {
	svc  acousticsim.Service
	dir  string
	log  *logger.Logger
	mu   sync.Mutex
	pass *sync.Mutex
}

func (r *rescanner) run(ctx context.Context) {
	if !r.mu.TryLock() {
		r.log.Debugf("Rescan already running")
		return
	}
	defer r.mu.Unlock()

	files, err := utils.CollectAudioFiles([]string{r.dir})
	if err != nil {
		r.log.Errorf("Rescan of %s failed: %v", r.dir, err)
		return
	}

	var fresh []models.Song
	for _, f := range files {
		song := models.Song{ID: utils.SongIDFromPath(f), Path: f}
		known, err := r.svc.QuerySimilar(ctx, song.ID, 0)
		if err != nil {
			r.log.Errorf("Rescan lookup failed: %v", err)
			return
		}
		if known == nil {
			fresh = append(fresh, song)
		}
	}
	if len(fresh) == 0 {
		return
	}

	r.log.Infof("Found %d new file(s) in %s", len(fresh), r.dir)
	r.pass.Lock()
	defer r.pass.Unlock()
	if err := r.svc.AnalyzeSongs(ctx, fresh); err != nil && !errors.Is(err, context.Canceled) {
		r.log.Errorf("Analysis of new files failed: %v", err)
	}
}
