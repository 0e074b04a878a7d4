// Package dataset reads and writes the comma-delimited outputs: the clean
// record table, the per-agglomeration trend table, and the per-year totals.
// Columns are matched by header name, not position.
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/uacensus/internal/model"
)

// WriteRecords writes clean records with a header row.
func WriteRecords(w io.Writer, records []model.CleanRecord) error {
	return encodeAll(w, model.CleanRecord{}, records)
}

// ReadRecords reads clean records by header name.
func ReadRecords(r io.Reader) ([]model.CleanRecord, error) {
	return decodeAll[model.CleanRecord](r)
}

// WriteTrends writes the per-agglomeration trend table.
func WriteTrends(w io.Writer, trends []model.Trend) error {
	return encodeAll(w, model.Trend{}, trends)
}

// ReadTrends reads the per-agglomeration trend table.
func ReadTrends(r io.Reader) ([]model.Trend, error) {
	return decodeAll[model.Trend](r)
}

// WriteYearTotals writes the per-year totals table.
func WriteYearTotals(w io.Writer, totals []model.YearTotal) error {
	return encodeAll(w, model.YearTotal{}, totals)
}

// ReadYearTotals reads the per-year totals table.
func ReadYearTotals(r io.Reader) ([]model.YearTotal, error) {
	return decodeAll[model.YearTotal](r)
}

func encodeAll[T any](w io.Writer, header T, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(header); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "dataset: write row %d", i+1)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush")
}

func decodeAll[T any](r io.Reader) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "dataset: read header")
	}

	var out []T
	for {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, eris.Wrapf(err, "dataset: read row %d", len(out)+1)
		}
		out = append(out, v)
	}
}

// WriteFile creates path (and its directory) and writes it with fn.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "dataset: create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "dataset: close %s", path)
}

// ReadFile opens path and decodes it with fn.
func ReadFile[T any](path string, fn func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return fn(f)
}
