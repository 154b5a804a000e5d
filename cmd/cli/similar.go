package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSim/pkg/utils"
)

var (
	similarFromMs int
	similarByPath bool
)

var similarCmd = &cobra.Command{
	Use:   "similar <song-id|file>",
	Short: "Show the segments most similar to one segment of a song",
	Long: `Similar prints the stored similarity list of the segment of the song
that starts closest to --from-ms. Pass --path to identify the song by its
audio file instead of its id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := openService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		songID := args[0]
		if similarByPath {
			songID = utils.SongIDFromPath(songID)
		}

		results, err := svc.QuerySimilar(cmd.Context(), songID, similarFromMs)
		if err != nil {
			return err
		}
		if results == nil {
			return fmt.Errorf("song %s has no stored segments", songID)
		}
		if len(results) == 0 {
			fmt.Println("No similar segments recorded yet")
			return nil
		}

		fmt.Printf("Segments similar to %s at %dms:\n\n", songID, similarFromMs)
		for i, r := range results {
			fmt.Printf("%2d. song %s  %6dms - %6dms  distance %.4f\n",
				i+1, r.SongID, r.FromMs, r.ToMs, r.Distance)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVar(&similarFromMs, "from-ms", 0, "segment start time in milliseconds")
	similarCmd.Flags().BoolVar(&similarByPath, "path", false, "treat the argument as an audio file path")
}
