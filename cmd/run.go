package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runInput string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean, summarize, and plot in one pass",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if runInput != "" {
			cfg.Source.Path = runInput
		}
		if err := cfg.Validate("clean"); err != nil {
			return err
		}

		ctx := cmd.Context()
		res, err := runClean(ctx, cfg)
		if err != nil {
			return err
		}
		sum, err := runSummarize(cfg)
		if err != nil {
			return err
		}
		if _, err := runPlot(ctx, cfg); err != nil {
			return err
		}

		zap.L().Info("run: complete",
			zap.String("run_id", res.Manifest.RunID),
			zap.Int("records", len(res.Records)),
			zap.Int("trends", len(sum.Trends)),
		)
		fmt.Fprintf(os.Stderr, "%d records, %d trends; manifest %s\n",
			len(res.Records), len(sum.Trends), cfg.Output.ManifestPath())
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "extract path or URL (default from config source.path)")
	rootCmd.AddCommand(runCmd)
}
