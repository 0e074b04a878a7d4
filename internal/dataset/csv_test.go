package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uacensus/internal/model"
)

func sampleRecords() []model.CleanRecord {
	return []model.CleanRecord{
		{
			UANo: 1, UA: "Greater Mumbai", Year: 1961,
			Area:             model.Float64(437.71),
			Population:       model.Int64(4152056),
			PopChange:        model.Int64(1157059),
			PopChangePercent: model.Float64(38.63),
			PopMale:          model.Int64(2496857),
			PopFemale:        model.Int64(1655199),
		},
		{UANo: 1, UA: "Greater Mumbai", Year: 1971, Population: model.Int64(5970575)},
	}
}

func TestWriteRecords_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"ua_no", "ua", "year", "area", "population", "pop_change",
		"pop_change_percent", "pop_male", "pop_female",
	}, rows[0])
	assert.Equal(t, "Greater Mumbai", rows[1][1])
	assert.Equal(t, "", rows[2][3], "missing area encodes as an empty cell")
}

func TestRecords_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := sampleRecords()
	require.NoError(t, WriteRecords(&buf, in))

	out, err := ReadRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadRecords_ByFieldName(t *testing.T) {
	data := "year,ua,pop_female,ua_no,pop_male\n1981,Pune,900,4,1000\n"

	out, err := ReadRecords(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].UANo)
	assert.Equal(t, "Pune", out[0].UA)
	assert.Equal(t, 1981, out[0].Year)
	assert.Equal(t, int64(1000), *out[0].PopMale)
	assert.Equal(t, int64(900), *out[0].PopFemale)
	assert.Nil(t, out[0].Population)
}

func TestReadRecords_Empty(t *testing.T) {
	out, err := ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadRecords_BadValue(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("ua_no,ua,year\nx,A,1961\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read row 1")
}

func TestWriteRecords_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "ua_no,ua,year"))

	out, err := ReadRecords(&buf)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTrends_RoundTrip(t *testing.T) {
	in := []model.Trend{
		{
			UANo: 3, UA: "Chennai", FirstYear: 1961, LastYear: 2011, Years: 6, RatioPoints: 6,
			MeanSexRatio:    model.Float64(1.05),
			SexRatioSlope:   model.Float64(-0.0012),
			PopulationSlope: model.Float64(120000.5),
			PopulationFirst: model.Int64(1945189),
			PopulationLast:  model.Int64(8653521),
		},
		{UANo: 4, UA: "Pune", FirstYear: 1961, LastYear: 1961, Years: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTrends(&buf, in))
	out, err := ReadTrends(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestYearTotals_RoundTrip(t *testing.T) {
	in := []model.YearTotal{{Year: 1961, Agglomerations: 2, Population: 300, PopulationN: 2, Area: 12.5, AreaN: 1}}

	var buf bytes.Buffer
	require.NoError(t, WriteYearTotals(&buf, in))
	out, err := ReadYearTotals(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clean.csv")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteRecords(w, sampleRecords())
	}))

	out, err := ReadFile(path, ReadRecords)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ReadRecords)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset: open")
}
