package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/config"
	"github.com/sells-group/uacensus/internal/dataset"
	"github.com/sells-group/uacensus/internal/model"
	"github.com/sells-group/uacensus/internal/store"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the clean records and trends into the configured store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := loadDataset(ctx, cfg, st)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run %s: %d records, %d trends\n", run.ID, run.Records, run.Trends)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// loadDataset replaces the stored tables with the current output files and
// records the attempt as a run.
func loadDataset(ctx context.Context, c *config.Config, st store.Store) (*model.Run, error) {
	run, err := st.CreateRun(ctx, c.Output.RecordsPath())
	if err != nil {
		return nil, err
	}

	records, trends, err := replaceTables(ctx, c, st)
	if err != nil {
		if ferr := st.FailRun(ctx, run.ID, err.Error()); ferr != nil {
			zap.L().Error("load: mark run failed", zap.String("run_id", run.ID), zap.Error(ferr))
		}
		return nil, eris.Wrapf(err, "load: run %s", run.ID)
	}

	if err := st.CompleteRun(ctx, run.ID, records, trends); err != nil {
		return nil, err
	}
	run.Status = model.RunStatusComplete
	run.Records = records
	run.Trends = trends

	zap.L().Info("load: complete",
		zap.String("run_id", run.ID),
		zap.Int("records", records),
		zap.Int("trends", trends),
	)
	return run, nil
}

func replaceTables(ctx context.Context, c *config.Config, st store.Store) (int, int, error) {
	records, err := dataset.ReadFile(c.Output.RecordsPath(), dataset.ReadRecords)
	if err != nil {
		return 0, 0, err
	}
	trends, err := dataset.ReadFile(c.Output.TrendsPath(), dataset.ReadTrends)
	if err != nil {
		return 0, 0, err
	}

	nr, nt, err := st.ReplaceDataset(ctx, records, trends)
	if err != nil {
		return 0, 0, err
	}
	return int(nr), int(nt), nil
}
