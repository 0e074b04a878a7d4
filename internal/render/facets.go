package render

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/uacensus/internal/aggregate"
	"github.com/sells-group/uacensus/internal/model"
)

// Outputs lists the files written by All.
type Outputs struct {
	Population string   `json:"population"`
	SexRatio   string   `json:"sex_ratio"`
	Trends     string   `json:"trends"`
	Facets     []string `json:"facets,omitempty"`
}

// All writes the population, sex ratio, and trend charts into opts.Dir, plus
// one facet per agglomeration when opts.Facets is set.
func All(ctx context.Context, records []model.CleanRecord, trends []model.Trend, opts Options) (*Outputs, error) {
	out := &Outputs{
		Population: filepath.Join(opts.Dir, "population.png"),
		SexRatio:   filepath.Join(opts.Dir, "sex_ratio.png"),
		Trends:     filepath.Join(opts.Dir, "sex_ratio_trend.png"),
	}

	pop, err := PopulationChart(records, opts.TopN)
	if err != nil {
		return nil, err
	}
	if err := Save(pop, out.Population, opts); err != nil {
		return nil, err
	}

	ratio, err := SexRatioChart(records, opts.TopN)
	if err != nil {
		return nil, err
	}
	if err := Save(ratio, out.SexRatio, opts); err != nil {
		return nil, err
	}

	tc, err := TrendChart(trends)
	if err != nil {
		return nil, err
	}
	if err := Save(tc, out.Trends, opts); err != nil {
		return nil, err
	}

	if opts.Facets {
		out.Facets, err = Facets(ctx, records, filepath.Join(opts.Dir, "facets"), opts)
		if err != nil {
			return nil, err
		}
	}

	zap.L().Info("render: charts written",
		zap.String("dir", opts.Dir),
		zap.Int("facets", len(out.Facets)),
	)
	return out, nil
}

// Facets renders one population chart per agglomeration into dir, named by
// ua_no. Charts are drawn concurrently, bounded by opts.Concurrency. The
// returned paths are in ua_no order.
func Facets(ctx context.Context, records []model.CleanRecord, dir string, opts Options) ([]string, error) {
	groups := aggregate.GroupByUA(records)
	paths := make([]string, len(groups))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, grp := range groups {
		paths[i] = filepath.Join(dir, fmt.Sprintf("ua_%04d.png", grp[0].UANo))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := PopulationChart(grp, 0)
			if err != nil {
				return err
			}
			p.Title.Text = fmt.Sprintf("%s (UA %d)", grp[0].UA, grp[0].UANo)
			return Save(p, paths[i], opts)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "render: facets")
	}
	return paths, nil
}
