package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanInput string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Reconstruct clean records from a census extract",
	Long:  "Reads the grouped extract (XLSX, CSV, ZIP, or URL), forward-fills each agglomeration's identity onto its census-year rows, and writes one clean row per (agglomeration, year).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cleanInput != "" {
			cfg.Source.Path = cleanInput
		}
		if err := cfg.Validate("clean"); err != nil {
			return err
		}

		res, err := runClean(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		q := res.Report.Quality
		fmt.Fprintf(os.Stderr, "%d records from %d rows (headers %d, orphans %d, malformed %d, year defects %d, before %d: %d)\n",
			q.Records, q.RowsRead, q.Headers, q.Orphans, q.MalformedGroup, q.YearDefects, cfg.Clean.MinYear, q.BeforeMinYear)
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanInput, "input", "", "extract path or URL (default from config source.path)")
	rootCmd.AddCommand(cleanCmd)
}
