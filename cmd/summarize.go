package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Derive per-agglomeration trends and per-year totals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("summarize"); err != nil {
			return err
		}

		res, err := runSummarize(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d trends, %d census years\n", len(res.Trends), len(res.Years))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
