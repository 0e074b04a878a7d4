package model

import "strconv"

// RawRow is one line of the census extract, cells kept as read.
type RawRow struct {
	Line             int    `json:"line" csv:"-"`
	UANo             string `json:"ua_no" csv:"ua_no"`
	UA               string `json:"ua" csv:"ua"`
	District         string `json:"district" csv:"district"`
	Year             string `json:"year" csv:"year"`
	Type             string `json:"type" csv:"type"`
	Area             string `json:"area" csv:"area"`
	Population       string `json:"population" csv:"population"`
	PopChange        string `json:"pop_change" csv:"pop_change"`
	PopChangePercent string `json:"pop_change_percent" csv:"pop_change_percent"`
	PopMale          string `json:"pop_male" csv:"pop_male"`
	PopFemale        string `json:"pop_female" csv:"pop_female"`
}

// RawColumns is the positional layout of the extract after the header offset.
var RawColumns = []string{
	"ua_no", "ua", "district", "year", "type", "area",
	"population", "pop_change", "pop_change_percent", "pop_male", "pop_female",
}

// RawRowFromCells maps positional cells onto a RawRow. Short rows leave the
// trailing fields empty; extra cells are ignored.
func RawRowFromCells(line int, cells []string) RawRow {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return RawRow{
		Line:             line,
		UANo:             get(0),
		UA:               get(1),
		District:         get(2),
		Year:             get(3),
		Type:             get(4),
		Area:             get(5),
		Population:       get(6),
		PopChange:        get(7),
		PopChangePercent: get(8),
		PopMale:          get(9),
		PopFemale:        get(10),
	}
}

// CleanRecord is one fully identified (agglomeration, census year) row.
// Measurements are nil when the source cell could not be parsed.
type CleanRecord struct {
	UANo             int      `json:"ua_no" csv:"ua_no"`
	UA               string   `json:"ua" csv:"ua"`
	Year             int      `json:"year" csv:"year"`
	Area             *float64 `json:"area" csv:"area"`
	Population       *int64   `json:"population" csv:"population"`
	PopChange        *int64   `json:"pop_change" csv:"pop_change"`
	PopChangePercent *float64 `json:"pop_change_percent" csv:"pop_change_percent"`
	PopMale          *int64   `json:"pop_male" csv:"pop_male"`
	PopFemale        *int64   `json:"pop_female" csv:"pop_female"`
}

// CleanColumns is the header of the clean record table.
var CleanColumns = []string{
	"ua_no", "ua", "year", "area", "population", "pop_change",
	"pop_change_percent", "pop_male", "pop_female",
}

// Raw renders the record back into extract form, as a group start row.
func (r CleanRecord) Raw() RawRow {
	return RawRow{
		UANo:             strconv.Itoa(r.UANo),
		UA:               r.UA,
		Year:             strconv.Itoa(r.Year),
		Area:             formatFloat(r.Area),
		Population:       formatInt(r.Population),
		PopChange:        formatInt(r.PopChange),
		PopChangePercent: formatFloat(r.PopChangePercent),
		PopMale:          formatInt(r.PopMale),
		PopFemale:        formatInt(r.PopFemale),
	}
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
