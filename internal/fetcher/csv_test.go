package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "1,Greater Mumbai,Mumbai,,UA\n,,,1961,,437.71,4152056\n"

	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "Greater Mumbai", "Mumbai", "", "UA"}, rows[0])
	assert.Equal(t, "1961", rows[1][3])
}

func TestReadCSV_SkipRows(t *testing.T) {
	input := "TABLE A-4\nua_no,ua,district\n1,A,D\n"

	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{SkipRows: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "A", "D"}, rows[0])
}

func TestReadCSV_StripsBOM(t *testing.T) {
	input := "\uFEFF1,A\n"

	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0][0])
}

func TestReadCSV_TrimSpaceAndDelimiter(t *testing.T) {
	input := " 1 ; A \n"

	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{Delimiter: ';', TrimSpace: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "A"}, rows[0])
}

func TestReadCSV_Comment(t *testing.T) {
	input := "# generated\n1,A\n"

	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{Comment: '#'})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReadCSV_BadQuote(t *testing.T) {
	input := "1,\"unterminated\n"

	_, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestReadCSV_LazyQuotes(t *testing.T) {
	input := "1,Kochi \"UA\" region\n"

	rows, err := ReadCSV(strings.NewReader(input), CSVOptions{LazyQuotes: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
