package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uacensus/internal/model"
)

func rec(no int, ua string, year int, pop, male, female *int64) model.CleanRecord {
	return model.CleanRecord{UANo: no, UA: ua, Year: year, Population: pop, PopMale: male, PopFemale: female}
}

var i64 = model.Int64

func TestSexRatio(t *testing.T) {
	v := SexRatio(rec(1, "A", 1961, nil, i64(520), i64(480)))
	require.NotNil(t, v)
	assert.InDelta(t, 520.0/480.0, *v, 1e-12)

	assert.Nil(t, SexRatio(rec(1, "A", 1961, nil, i64(520), nil)))
	assert.Nil(t, SexRatio(rec(1, "A", 1961, nil, nil, i64(480))))
	assert.Nil(t, SexRatio(rec(1, "A", 1961, nil, i64(520), i64(0))))
}

func TestMeanSexRatio_ExcludesMissing(t *testing.T) {
	records := []model.CleanRecord{
		rec(1, "A", 1961, nil, i64(110), i64(100)),
		rec(1, "A", 1971, nil, i64(120), nil),
		rec(1, "A", 1981, nil, i64(130), i64(100)),
	}

	mean, n := MeanSexRatio(records)
	require.NotNil(t, mean)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 1.2, *mean, 1e-12)
}

func TestMeanSexRatio_NoneAvailable(t *testing.T) {
	mean, n := MeanSexRatio([]model.CleanRecord{rec(1, "A", 1961, nil, nil, nil)})
	assert.Nil(t, mean)
	assert.Zero(t, n)
}

func TestSlope(t *testing.T) {
	s := Slope([]float64{1961, 1971, 1981}, []float64{1, 2, 3})
	require.NotNil(t, s)
	assert.InDelta(t, 0.1, *s, 1e-9)

	assert.Nil(t, Slope([]float64{1961}, []float64{1}))
	assert.Nil(t, Slope([]float64{1961, 1961}, []float64{1, 2}))
	assert.Nil(t, Slope([]float64{1961, 1971}, []float64{1}))
}

func TestTrends(t *testing.T) {
	records := []model.CleanRecord{
		rec(2, "B", 1971, i64(300), i64(150), i64(150)),
		rec(1, "A", 1981, i64(300), i64(130), i64(100)),
		rec(1, "A", 1961, i64(100), i64(110), i64(100)),
		rec(1, "A", 1971, i64(200), i64(120), nil),
	}

	trends := Trends(records)
	require.Len(t, trends, 2)

	a := trends[0]
	assert.Equal(t, 1, a.UANo)
	assert.Equal(t, "A", a.UA)
	assert.Equal(t, 1961, a.FirstYear)
	assert.Equal(t, 1981, a.LastYear)
	assert.Equal(t, 3, a.Years)
	assert.Equal(t, 2, a.RatioPoints)
	require.NotNil(t, a.MeanSexRatio)
	assert.InDelta(t, 1.2, *a.MeanSexRatio, 1e-12)
	require.NotNil(t, a.SexRatioSlope)
	assert.InDelta(t, 0.01, *a.SexRatioSlope, 1e-9)
	require.NotNil(t, a.PopulationSlope)
	assert.InDelta(t, 10.0, *a.PopulationSlope, 1e-9)
	assert.Equal(t, int64(100), *a.PopulationFirst)
	assert.Equal(t, int64(300), *a.PopulationLast)

	b := trends[1]
	assert.Equal(t, 2, b.UANo)
	assert.Equal(t, 1, b.Years)
	assert.Nil(t, b.SexRatioSlope)
	assert.Nil(t, b.PopulationSlope)
	require.NotNil(t, b.MeanSexRatio)
	assert.InDelta(t, 1.0, *b.MeanSexRatio, 1e-12)
}

func TestYearTotals(t *testing.T) {
	area := model.Float64(2.5)
	records := []model.CleanRecord{
		rec(1, "A", 1971, i64(100), i64(60), i64(40)),
		rec(2, "B", 1961, i64(50), nil, i64(20)),
		rec(3, "C", 1961, nil, i64(10), i64(5)),
	}
	records[1].Area = area

	totals := YearTotals(records)
	require.Len(t, totals, 2)

	y61 := totals[0]
	assert.Equal(t, 1961, y61.Year)
	assert.Equal(t, 2, y61.Agglomerations)
	assert.Equal(t, int64(50), y61.Population)
	assert.Equal(t, 1, y61.PopulationN)
	assert.Equal(t, int64(10), y61.PopMale)
	assert.Equal(t, 1, y61.PopMaleN)
	assert.Equal(t, int64(25), y61.PopFemale)
	assert.Equal(t, 2, y61.PopFemaleN)
	assert.InDelta(t, 2.5, y61.Area, 1e-12)
	assert.Equal(t, 1, y61.AreaN)

	assert.Equal(t, 1971, totals[1].Year)
	assert.Equal(t, int64(100), totals[1].Population)
}

func TestGroupByUA_SortsWithinGroup(t *testing.T) {
	groups := GroupByUA([]model.CleanRecord{
		rec(5, "E", 1991, nil, nil, nil),
		rec(5, "E", 1961, nil, nil, nil),
		rec(3, "C", 1971, nil, nil, nil),
	})
	require.Len(t, groups, 2)
	assert.Equal(t, 3, groups[0][0].UANo)
	assert.Equal(t, 1961, groups[1][0].Year)
	assert.Equal(t, 1991, groups[1][1].Year)
}
