package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSim/pkg/acousticsim"
	"github.com/himanishpuri/AcousticSim/pkg/models"
	"github.com/himanishpuri/AcousticSim/pkg/utils"
)

var (
	analyzeWorkers int
	analyzeChunks  int
	analyzeForce   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-dir>...",
	Short: "Extract segments from audio files and match them against the corpus",
	Long: `Analyze decodes every audio file given (directories are scanned
recursively), stores its five second segments and computes similarity
lists for them against every segment already in the database.

Files analyzed before reuse their stored segments unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", 0, "loader workers per chunk (default: CPU count)")
	analyzeCmd.Flags().IntVar(&analyzeChunks, "chunks", 0, "number of chunks the song list is split into (default: CPU count)")
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "re-extract songs that already have stored segments")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.Logger()

	files, err := utils.CollectAudioFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No audio files found")
		return nil
	}

	songs := make([]models.Song, len(files))
	for i, f := range files {
		songs[i] = models.Song{ID: utils.SongIDFromPath(f), Path: f}
	}

	var opts []acousticsim.Option
	if analyzeWorkers > 0 {
		opts = append(opts, acousticsim.WithLoaderWorkers(analyzeWorkers))
	}
	if analyzeChunks > 0 {
		opts = append(opts, acousticsim.WithLoadChunks(analyzeChunks))
	}
	var bars *progressBars
	if !noProgress {
		bars = newProgressBars()
		opts = append(opts, acousticsim.WithProgress(bars.Update))
	}

	svc, err := openService(cfg, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	log.Infof("Analyzing %d file(s)", len(songs))
	if analyzeForce {
		err = analyzeForced(cmd, svc, songs)
	} else {
		err = svc.AnalyzeSongs(ctx, songs)
	}
	if bars != nil {
		bars.Wait()
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	n, err := svc.SegmentCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Analyzed %d file(s); database holds %d segment(s)\n", len(songs), n)
	for _, s := range songs {
		fmt.Printf("  %s  %s\n", s.ID, s.Path)
	}
	return nil
}

// analyzeForced re-extracts every song before matching the fresh segments.
func analyzeForced(cmd *cobra.Command, svc acousticsim.Service, songs []models.Song) error {
	ctx := cmd.Context()
	var all []models.LoadedSegment
	for _, s := range songs {
		segs, err := svc.LoadSong(ctx, s, true)
		if err != nil {
			return err
		}
		all = append(all, segs...)
	}
	return svc.AnalyzeSegments(ctx, all)
}
