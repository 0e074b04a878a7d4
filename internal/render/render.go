// Package render draws census charts with gonum/plot. Each chart maps record
// fields onto visual channels: position, color per agglomeration, and glyph
// size for population.
package render

import (
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sells-group/uacensus/internal/aggregate"
	"github.com/sells-group/uacensus/internal/config"
	"github.com/sells-group/uacensus/internal/model"
)

// Options controls chart size, selection, and output location.
type Options struct {
	Dir         string
	Width       vg.Length
	Height      vg.Length
	TopN        int
	Facets      bool
	Concurrency int
}

// OptionsFromConfig converts the render section of the config.
func OptionsFromConfig(cfg config.RenderConfig) Options {
	return Options{
		Dir:         cfg.Dir,
		Width:       vg.Length(cfg.WidthInch) * vg.Inch,
		Height:      vg.Length(cfg.HeightInch) * vg.Inch,
		TopN:        cfg.TopN,
		Facets:      cfg.Facets,
		Concurrency: cfg.Concurrency,
	}
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 8 * vg.Inch
	}
	if h <= 0 {
		h = 5 * vg.Inch
	}
	return w, h
}

const (
	minGlyph = vg.Length(2)
	maxGlyph = vg.Length(10)
)

// PopulationChart plots population against census year, one colored line per
// agglomeration. Only the topN largest by latest population are drawn; topN
// <= 0 draws all.
func PopulationChart(records []model.CleanRecord, topN int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Urban agglomeration population"
	p.X.Label.Text = "Census year"
	p.Y.Label.Text = "Population"
	p.Legend.Top = true
	p.Legend.Left = true

	for i, g := range topByPopulation(aggregate.GroupByUA(records), topN) {
		pts := populationPoints(g)
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, eris.Wrapf(err, "render: population line for %s", g[0].UA)
		}
		c := plotutil.Color(i)
		line.LineStyle.Color = c
		points.GlyphStyle.Color = c
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(g[0].UA, line, points)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// SexRatioChart plots males per female against census year. Glyph radius
// scales with the square root of population so area tracks headcount.
func SexRatioChart(records []model.CleanRecord, topN int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Sex ratio (males per female)"
	p.X.Label.Text = "Census year"
	p.Y.Label.Text = "Males per female"
	p.Legend.Top = true

	groups := topByPopulation(aggregate.GroupByUA(records), topN)
	maxPop := maxPopulation(groups)

	for i, g := range groups {
		var pts plotter.XYs
		var pops []int64
		for _, r := range g {
			ratio := aggregate.SexRatio(r)
			if ratio == nil {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(r.Year), Y: *ratio})
			var pop int64
			if r.Population != nil {
				pop = *r.Population
			}
			pops = append(pops, pop)
		}
		if len(pts) == 0 {
			continue
		}

		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, eris.Wrapf(err, "render: sex ratio scatter for %s", g[0].UA)
		}
		c := plotutil.Color(i)
		sc.GlyphStyleFunc = func(j int) draw.GlyphStyle {
			return draw.GlyphStyle{
				Color:  c,
				Radius: glyphRadius(pops[j], maxPop),
				Shape:  draw.CircleGlyph{},
			}
		}
		sc.GlyphStyle.Color = c
		p.Add(sc)
		p.Legend.Add(g[0].UA, sc)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// TrendChart draws one bar per agglomeration with its sex ratio slope per
// year. Agglomerations without a slope are skipped.
func TrendChart(trends []model.Trend) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Sex ratio trend per agglomeration"
	p.Y.Label.Text = "Change in males per female per year"

	var values plotter.Values
	var names []string
	for _, t := range trends {
		if t.SexRatioSlope == nil {
			continue
		}
		values = append(values, *t.SexRatioSlope)
		names = append(names, t.UA)
	}
	if len(values) == 0 {
		return p, nil
	}

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, eris.Wrap(err, "render: trend bars")
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())
	return p, nil
}

// Save writes p as an image at path. The format follows the file extension.
func Save(p *plot.Plot, path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "render: create dir for %s", path)
	}
	w, h := opts.size()
	if err := p.Save(w, h, path); err != nil {
		return eris.Wrapf(err, "render: save %s", path)
	}
	return nil
}

func populationPoints(g []model.CleanRecord) plotter.XYs {
	var pts plotter.XYs
	for _, r := range g {
		if r.Population == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(r.Year), Y: float64(*r.Population)})
	}
	return pts
}

// latestPopulation returns the population at the most recent year that has
// one, or -1.
func latestPopulation(g []model.CleanRecord) int64 {
	for i := len(g) - 1; i >= 0; i-- {
		if g[i].Population != nil {
			return *g[i].Population
		}
	}
	return -1
}

func topByPopulation(groups [][]model.CleanRecord, n int) [][]model.CleanRecord {
	if n <= 0 || n >= len(groups) {
		return groups
	}
	sorted := make([][]model.CleanRecord, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return latestPopulation(sorted[i]) > latestPopulation(sorted[j])
	})
	return sorted[:n]
}

func maxPopulation(groups [][]model.CleanRecord) int64 {
	var m int64
	for _, g := range groups {
		for _, r := range g {
			if r.Population != nil && *r.Population > m {
				m = *r.Population
			}
		}
	}
	return m
}

func glyphRadius(pop, maxPop int64) vg.Length {
	if pop <= 0 || maxPop <= 0 {
		return minGlyph
	}
	frac := math.Sqrt(float64(pop) / float64(maxPop))
	return minGlyph + vg.Length(frac)*(maxGlyph-minGlyph)
}
