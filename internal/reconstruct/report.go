package reconstruct

import (
	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/model"
)

// Reason classifies why a source row produced no record.
type Reason = model.DropReason

const (
	ReasonHeader         Reason = "header"
	ReasonDecoration     Reason = "decoration"
	ReasonMalformedGroup Reason = "malformed_group"
	ReasonOrphan         Reason = "orphan"
	ReasonYearDefect     Reason = "year_defect"
	ReasonBeforeMinYear  Reason = "before_min_year"
	ReasonDuplicate      Reason = "duplicate"
)

// Drop describes one source row that was left out of the output.
type Drop = model.Drop

// Report is the data-quality audit of one reconstruction pass.
type Report struct {
	model.Quality
	Drops []Drop `json:"drops,omitempty"`
}

func newReport(rowsRead int) *Report {
	return &Report{
		Quality: model.Quality{
			RowsRead:       rowsRead,
			MissingNumeric: make(map[string]int),
		},
	}
}

// DropsFor returns the drops recorded for one reason.
func (r *Report) DropsFor(reason Reason) []Drop {
	var out []Drop
	for _, d := range r.Drops {
		if d.Reason == reason {
			out = append(out, d)
		}
	}
	return out
}

func (r *Report) drop(row model.RawRow, reason Reason, value string) {
	r.Drops = append(r.Drops, Drop{Line: row.Line, Reason: reason, Value: value})

	switch reason {
	case ReasonHeader:
		r.Headers++
	case ReasonDecoration:
		r.Decoration++
	case ReasonMalformedGroup:
		r.MalformedGroup++
		zap.L().Warn("reconstruct: dropped row with malformed group id",
			zap.Int("line", row.Line),
			zap.String("ua_no", value),
			zap.String("ua", row.UA),
		)
	case ReasonOrphan:
		r.Orphans++
		zap.L().Warn("reconstruct: dropped continuation row without a group",
			zap.Int("line", row.Line),
			zap.String("year", row.Year),
		)
	case ReasonYearDefect:
		r.YearDefects++
		zap.L().Warn("reconstruct: unparseable census year",
			zap.Int("line", row.Line),
			zap.String("year", value),
		)
	case ReasonBeforeMinYear:
		r.BeforeMinYear++
	case ReasonDuplicate:
		r.Duplicates++
		zap.L().Warn("reconstruct: dropped repeated census year for agglomeration",
			zap.Int("line", row.Line),
			zap.String("year", row.Year),
			zap.String("first", value),
		)
	}
}

func (r *Report) missing(field string) {
	r.MissingNumeric[field]++
}
