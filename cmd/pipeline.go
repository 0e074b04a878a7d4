package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/aggregate"
	"github.com/sells-group/uacensus/internal/config"
	"github.com/sells-group/uacensus/internal/dataset"
	"github.com/sells-group/uacensus/internal/model"
	"github.com/sells-group/uacensus/internal/reconstruct"
	"github.com/sells-group/uacensus/internal/render"
	"github.com/sells-group/uacensus/internal/source"
)

// cleanResult is what one clean pass produced.
type cleanResult struct {
	Records  []model.CleanRecord
	Report   *reconstruct.Report
	Manifest *dataset.Manifest
}

// runClean loads the configured extract, reconstructs records, and writes the
// clean table plus a manifest.
func runClean(ctx context.Context, c *config.Config) (*cleanResult, error) {
	rows, err := source.Load(ctx, c.Source.Path, source.OptionsFromConfig(c.Source))
	if err != nil {
		return nil, err
	}

	records, rep := reconstruct.Reconstruct(rows, reconstruct.Options{MinYear: c.Clean.MinYear})

	path := c.Output.RecordsPath()
	if err := dataset.WriteFile(path, func(w io.Writer) error {
		return dataset.WriteRecords(w, records)
	}); err != nil {
		return nil, err
	}

	m := dataset.NewManifest(c.Source.Path, c.Clean.MinYear)
	m.Outputs["records"] = path
	m.Quality = rep.Quality
	m.Drops = rep.Drops
	if err := dataset.WriteManifest(c.Output.ManifestPath(), m); err != nil {
		return nil, err
	}

	zap.L().Info("clean: wrote records",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.String("run_id", m.RunID),
	)
	return &cleanResult{Records: records, Report: rep, Manifest: m}, nil
}

// summaryResult holds the derived tables.
type summaryResult struct {
	Trends []model.Trend
	Years  []model.YearTotal
}

// runSummarize derives trends and per-year totals from the clean table.
func runSummarize(c *config.Config) (*summaryResult, error) {
	records, err := dataset.ReadFile(c.Output.RecordsPath(), dataset.ReadRecords)
	if err != nil {
		return nil, err
	}

	res := &summaryResult{
		Trends: aggregate.Trends(records),
		Years:  aggregate.YearTotals(records),
	}

	if err := dataset.WriteFile(c.Output.TrendsPath(), func(w io.Writer) error {
		return dataset.WriteTrends(w, res.Trends)
	}); err != nil {
		return nil, err
	}
	if err := dataset.WriteFile(c.Output.YearsPath(), func(w io.Writer) error {
		return dataset.WriteYearTotals(w, res.Years)
	}); err != nil {
		return nil, err
	}

	if err := updateManifest(c, map[string]string{
		"trends": c.Output.TrendsPath(),
		"years":  c.Output.YearsPath(),
	}); err != nil {
		return nil, err
	}

	zap.L().Info("summarize: wrote trends",
		zap.Int("records", len(records)),
		zap.Int("trends", len(res.Trends)),
		zap.Int("years", len(res.Years)),
	)
	return res, nil
}

// runPlot renders charts from the clean table. Trends are read from the
// trends table when present and derived from the records otherwise.
func runPlot(ctx context.Context, c *config.Config) (*render.Outputs, error) {
	records, err := dataset.ReadFile(c.Output.RecordsPath(), dataset.ReadRecords)
	if err != nil {
		return nil, err
	}

	var trends []model.Trend
	if fileExists(c.Output.TrendsPath()) {
		trends, err = dataset.ReadFile(c.Output.TrendsPath(), dataset.ReadTrends)
		if err != nil {
			return nil, err
		}
	} else {
		trends = aggregate.Trends(records)
	}

	out, err := render.All(ctx, records, trends, render.OptionsFromConfig(c.Render))
	if err != nil {
		return nil, err
	}

	if err := updateManifest(c, map[string]string{
		"chart_population": out.Population,
		"chart_sex_ratio":  out.SexRatio,
		"chart_trends":     out.Trends,
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// updateManifest records extra outputs in the manifest when clean has
// written one.
func updateManifest(c *config.Config, outputs map[string]string) error {
	path := c.Output.ManifestPath()
	if !fileExists(path) {
		return nil
	}
	m, err := dataset.ReadManifest(path)
	if err != nil {
		return err
	}
	if m.Outputs == nil {
		m.Outputs = make(map[string]string)
	}
	for k, v := range outputs {
		m.Outputs[k] = v
	}
	return eris.Wrap(dataset.WriteManifest(path, m), "update manifest")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
