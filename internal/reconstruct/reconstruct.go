// Package reconstruct rebuilds fully identified census records from a
// spreadsheet extract in which an agglomeration's identity cells appear only
// on the first row of its group.
package reconstruct

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/model"
)

// DefaultMinYear is the earliest census year kept in the output.
const DefaultMinYear = 1961

// Options configures a reconstruction pass.
type Options struct {
	MinYear int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{MinYear: DefaultMinYear}
}

type rowKind int

const (
	kindDecoration rowKind = iota
	kindHeader
	kindStart
	kindContinuation
)

// blank reports whether a cell carries no value. Extracts that passed
// through a statistics package spell missing cells as "NA".
func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "N/A")
}

// classify inspects the row as read, before any identity is filled in.
func classify(row model.RawRow) rowKind {
	switch {
	case !blank(row.UA) && blank(row.District) && blank(row.Year) && blank(row.Population):
		return kindHeader
	case !blank(row.UANo):
		return kindStart
	case !blank(row.Year):
		return kindContinuation
	default:
		return kindDecoration
	}
}

// group is the fold state: the identity of the most recent valid group start.
type group struct {
	no    int
	ua    string
	valid bool
}

// recordKey identifies one output record.
type recordKey struct {
	no   int
	year int
}

// Reconstruct folds the ordered rows into clean records. Row order is
// significant: continuation rows inherit the identity of the nearest
// preceding group start. At most one record is kept per (agglomeration,
// year); later repeats are dropped. Nothing here is fatal; every row left
// out is accounted for in the returned report.
func Reconstruct(rows []model.RawRow, opts Options) ([]model.CleanRecord, *Report) {
	if opts.MinYear == 0 {
		opts.MinYear = DefaultMinYear
	}

	rep := newReport(len(rows))
	out := make([]model.CleanRecord, 0, len(rows))
	var cur group
	seen := make(map[recordKey]int)

	for _, row := range rows {
		switch classify(row) {
		case kindHeader:
			// A section header closes whatever group was open.
			cur = group{}
			rep.drop(row, ReasonHeader, strings.TrimSpace(row.UA))
			continue

		case kindDecoration:
			rep.drop(row, ReasonDecoration, "")
			continue

		case kindStart:
			next, ok := startGroup(row, cur)
			if !ok {
				cur = group{}
				rep.drop(row, ReasonMalformedGroup, strings.TrimSpace(row.UANo))
				continue
			}
			cur = next
			if blank(row.Year) {
				// Identity-only row: the measurements follow on continuation rows.
				rep.drop(row, ReasonHeader, cur.ua)
				continue
			}

		case kindContinuation:
			if !cur.valid {
				rep.drop(row, ReasonOrphan, "")
				continue
			}
		}

		year, ok := ParseYear(row.Year)
		if !ok {
			rep.drop(row, ReasonYearDefect, row.Year)
			continue
		}
		if year < opts.MinYear {
			rep.drop(row, ReasonBeforeMinYear, row.Year)
			continue
		}

		key := recordKey{no: cur.no, year: year}
		if first, dup := seen[key]; dup {
			rep.drop(row, ReasonDuplicate, "line "+strconv.Itoa(first))
			continue
		}
		seen[key] = row.Line

		out = append(out, buildRecord(cur, year, row, rep))
	}

	rep.Records = len(out)
	zap.L().Info("reconstruct: complete",
		zap.Int("rows_read", rep.RowsRead),
		zap.Int("records", rep.Records),
		zap.Int("headers", rep.Headers),
		zap.Int("malformed_group", rep.MalformedGroup),
		zap.Int("orphans", rep.Orphans),
		zap.Int("year_defects", rep.YearDefects),
		zap.Int("before_min_year", rep.BeforeMinYear),
		zap.Int("duplicates", rep.Duplicates),
	)

	return out, rep
}

// startGroup derives the fold state for a group start row. A start row
// without a name is accepted only when it repeats the open group's id.
func startGroup(row model.RawRow, cur group) (group, bool) {
	no, ok := parseGroupNo(row.UANo)
	if !ok {
		return group{}, false
	}
	name := ""
	if !blank(row.UA) {
		name = NormalizeName(row.UA)
	}
	if name == "" {
		if cur.valid && cur.no == no {
			return cur, true
		}
		return group{}, false
	}
	return group{no: no, ua: name, valid: true}, true
}

func buildRecord(g group, year int, row model.RawRow, rep *Report) model.CleanRecord {
	rec := model.CleanRecord{
		UANo:             g.no,
		UA:               g.ua,
		Year:             year,
		Area:             ParseFloat(row.Area),
		Population:       ParseInt(row.Population),
		PopChange:        ParseInt(row.PopChange),
		PopChangePercent: ParseFloat(row.PopChangePercent),
		PopMale:          ParseInt(row.PopMale),
		PopFemale:        ParseInt(row.PopFemale),
	}

	if rec.Area == nil {
		rep.missing("area")
	}
	if rec.Population == nil {
		rep.missing("population")
	}
	if rec.PopChange == nil {
		rep.missing("pop_change")
	}
	if rec.PopChangePercent == nil {
		rep.missing("pop_change_percent")
	}
	if rec.PopMale == nil {
		rep.missing("pop_male")
	}
	if rec.PopFemale == nil {
		rep.missing("pop_female")
	}

	return rec
}
