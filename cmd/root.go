package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "uacensus",
	Short: "Clean and summarize Indian urban agglomeration census tables",
	Long:  "Reconstructs tidy (agglomeration, census year) records from the grouped census extract, derives sex ratio and population trends, renders charts, and optionally loads the results into a database.",
	// Pipeline failures are data or IO problems, not usage mistakes.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
