package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := openService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		st, err := svc.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Backend:            %s\n", cfg.Backend)
		if st.Songs >= 0 {
			fmt.Printf("Songs:              %d\n", st.Songs)
		}
		fmt.Printf("Segments:           %d\n", st.Segments)
		fmt.Printf("Matches per list:   %d\n", st.Matches)
		fmt.Printf("Incomplete lists:   %d\n", st.Incomplete)
		return nil
	},
}
