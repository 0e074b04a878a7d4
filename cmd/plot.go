package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var plotFacets bool

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render population and sex ratio charts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if plotFacets {
			cfg.Render.Facets = true
		}
		if err := cfg.Validate("plot"); err != nil {
			return err
		}

		out, err := runPlot(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "charts written to %s (%d facets)\n", cfg.Render.Dir, len(out.Facets))
		return nil
	},
}

func init() {
	plotCmd.Flags().BoolVar(&plotFacets, "facets", false, "also render one chart per agglomeration")
	rootCmd.AddCommand(plotCmd)
}
