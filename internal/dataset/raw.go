package dataset

import (
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/uacensus/internal/model"
)

// IsCleanHeader reports whether cells is the header row of a clean record
// table, as written by WriteRecords.
func IsCleanHeader(cells []string) bool {
	if len(cells) < len(model.CleanColumns) {
		return false
	}
	for i, col := range model.CleanColumns {
		if !strings.EqualFold(strings.TrimSpace(cells[i]), col) {
			return false
		}
	}
	for _, extra := range cells[len(model.CleanColumns):] {
		if strings.TrimSpace(extra) != "" {
			return false
		}
	}
	return true
}

// DecodeRawRows maps already-split rows onto RawRows by header name. Cells
// stay unparsed so malformed values reach the reconstructor as defects.
// firstLine is the line number of rows[0].
func DecodeRawRows(header []string, rows [][]string, firstLine int) ([]model.RawRow, error) {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.ToLower(strings.TrimSpace(h))
	}
	// Spreadsheet exports pad the header with empty cells.
	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}

	dec, err := csvutil.NewDecoder(&sliceReader{rows: rows, width: len(names)}, names...)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: raw rows decoder")
	}

	out := make([]model.RawRow, 0, len(rows))
	for {
		var r model.RawRow
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, eris.Wrapf(err, "dataset: decode row %d", len(out)+1)
		}
		r.Line = firstLine + len(out)
		out = append(out, r)
	}
}

// sliceReader feeds in-memory rows to csvutil, padding or trimming each one
// to the header width.
type sliceReader struct {
	rows  [][]string
	width int
	next  int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++

	out := make([]string, s.width)
	copy(out, row)
	return out, nil
}
