// Package aggregate derives per-agglomeration trends and per-year totals from
// clean census records. Missing measurements are excluded from every sum,
// mean, and regression; they are never counted as zero.
package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/uacensus/internal/model"
)

// SexRatio returns males per female for one record, or nil when either count
// is missing or there are no females.
func SexRatio(r model.CleanRecord) *float64 {
	if r.PopMale == nil || r.PopFemale == nil || *r.PopFemale == 0 {
		return nil
	}
	v := float64(*r.PopMale) / float64(*r.PopFemale)
	return &v
}

// MeanSexRatio averages the sex ratio over the records that have one and
// returns how many contributed.
func MeanSexRatio(records []model.CleanRecord) (*float64, int) {
	var ratios []float64
	for _, r := range records {
		if v := SexRatio(r); v != nil {
			ratios = append(ratios, *v)
		}
	}
	if len(ratios) == 0 {
		return nil, 0
	}
	m := stat.Mean(ratios, nil)
	return &m, len(ratios)
}

// Slope fits y = a + b*x by ordinary least squares and returns b. At least
// two distinct x values are required.
func Slope(xs, ys []float64) *float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return nil
	}
	distinct := false
	for _, x := range xs[1:] {
		if x != xs[0] {
			distinct = true
			break
		}
	}
	if !distinct {
		return nil
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return &beta
}

// GroupByUA splits records by ua_no, each group sorted by year. Groups are
// returned in ascending ua_no order.
func GroupByUA(records []model.CleanRecord) [][]model.CleanRecord {
	byNo := make(map[int][]model.CleanRecord)
	var order []int
	for _, r := range records {
		if _, ok := byNo[r.UANo]; !ok {
			order = append(order, r.UANo)
		}
		byNo[r.UANo] = append(byNo[r.UANo], r)
	}
	sort.Ints(order)

	groups := make([][]model.CleanRecord, 0, len(order))
	for _, no := range order {
		g := byNo[no]
		sort.SliceStable(g, func(i, j int) bool { return g[i].Year < g[j].Year })
		groups = append(groups, g)
	}
	return groups
}

// Trends computes one trend row per agglomeration.
func Trends(records []model.CleanRecord) []model.Trend {
	groups := GroupByUA(records)
	out := make([]model.Trend, 0, len(groups))
	for _, g := range groups {
		out = append(out, trend(g))
	}
	return out
}

func trend(g []model.CleanRecord) model.Trend {
	first, last := g[0], g[len(g)-1]
	t := model.Trend{
		UANo:            first.UANo,
		UA:              first.UA,
		FirstYear:       first.Year,
		LastYear:        last.Year,
		Years:           len(g),
		PopulationFirst: first.Population,
		PopulationLast:  last.Population,
	}

	var ratioX, ratioY, popX, popY []float64
	for _, r := range g {
		if v := SexRatio(r); v != nil {
			ratioX = append(ratioX, float64(r.Year))
			ratioY = append(ratioY, *v)
		}
		if r.Population != nil {
			popX = append(popX, float64(r.Year))
			popY = append(popY, float64(*r.Population))
		}
	}

	t.MeanSexRatio, t.RatioPoints = MeanSexRatio(g)
	t.SexRatioSlope = Slope(ratioX, ratioY)
	t.PopulationSlope = Slope(popX, popY)
	return t
}

// YearTotals sums every agglomeration per census year, in year order.
func YearTotals(records []model.CleanRecord) []model.YearTotal {
	byYear := make(map[int]*model.YearTotal)
	for _, r := range records {
		yt, ok := byYear[r.Year]
		if !ok {
			yt = &model.YearTotal{Year: r.Year}
			byYear[r.Year] = yt
		}
		yt.Agglomerations++
		if r.Population != nil {
			yt.Population += *r.Population
			yt.PopulationN++
		}
		if r.PopMale != nil {
			yt.PopMale += *r.PopMale
			yt.PopMaleN++
		}
		if r.PopFemale != nil {
			yt.PopFemale += *r.PopFemale
			yt.PopFemaleN++
		}
		if r.Area != nil {
			yt.Area += *r.Area
			yt.AreaN++
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]model.YearTotal, 0, len(years))
	for _, y := range years {
		out = append(out, *byYear[y])
	}
	return out
}
