// Package source loads a census extract from disk or a URL into raw rows.
package source

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/uacensus/internal/config"
	"github.com/sells-group/uacensus/internal/dataset"
	"github.com/sells-group/uacensus/internal/fetcher"
	"github.com/sells-group/uacensus/internal/model"
)

// Options controls how an extract is located and parsed.
type Options struct {
	Sheet      string
	SheetIndex int
	SkipRows   int
	TempDir    string
	TrimSpace  bool
	Comment    rune
	Fetcher    fetcher.Fetcher
}

// OptionsFromConfig builds Options with an HTTP fetcher configured from cfg.
func OptionsFromConfig(cfg config.SourceConfig) Options {
	var comment rune
	for _, r := range cfg.Comment {
		comment = r
		break
	}
	return Options{
		Sheet:      cfg.Sheet,
		SheetIndex: cfg.SheetIndex,
		SkipRows:   cfg.SkipRows,
		TempDir:    cfg.TempDir,
		TrimSpace:  cfg.TrimSpace,
		Comment:    comment,
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: cfg.UserAgent,
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		}),
	}
}

// Load reads the extract at loc, which may be a local path or an http(s) URL,
// and maps each row positionally onto a RawRow. A clean record table written
// by an earlier run is recognised by its header and mapped by column name
// instead. Line numbers are 1-based and count the skipped rows. Downloads and
// unpacked archives are removed once the cells are read.
func Load(ctx context.Context, loc string, opts Options) ([]model.RawRow, error) {
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	local := loc
	if isURL(loc) {
		p, cleanup, err := download(ctx, loc, opts)
		if err != nil {
			return nil, err
		}
		cleanups = append(cleanups, cleanup)
		local = p
	}

	if strings.EqualFold(filepath.Ext(local), ".zip") {
		dir, cleanup, err := workDir(opts.TempDir)
		if err != nil {
			return nil, err
		}
		cleanups = append(cleanups, cleanup)
		extracted, err := fetcher.ExtractZIPSingle(local, dir)
		if err != nil {
			return nil, eris.Wrapf(err, "source: unpack %s", local)
		}
		local = extracted
	}

	cells, err := readCells(local, opts)
	if err != nil {
		return nil, err
	}

	rows, err := toRawRows(cells, opts.SkipRows+1)
	if err != nil {
		return nil, eris.Wrapf(err, "source: map %s", loc)
	}

	zap.L().Info("source: loaded extract",
		zap.String("source", loc),
		zap.Int("rows", len(rows)),
		zap.Int("skip_rows", opts.SkipRows),
	)
	return rows, nil
}

// toRawRows maps cells onto RawRows. firstLine is the line number of cells[0].
func toRawRows(cells [][]string, firstLine int) ([]model.RawRow, error) {
	if len(cells) > 0 && dataset.IsCleanHeader(cells[0]) {
		zap.L().Info("source: clean record table detected, mapping columns by name")
		return dataset.DecodeRawRows(cells[0], cells[1:], firstLine+1)
	}

	rows := make([]model.RawRow, len(cells))
	for i, c := range cells {
		rows[i] = model.RawRowFromCells(firstLine+i, c)
	}
	return rows, nil
}

func readCells(p string, opts Options) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".xlsx", ".xlsm":
		cells, err := fetcher.ReadXLSX(p, fetcher.XLSXOptions{
			SheetName:  opts.Sheet,
			SheetIndex: opts.SheetIndex,
			SkipRows:   opts.SkipRows,
		})
		return cells, eris.Wrapf(err, "source: read %s", p)
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(p)
		if err != nil {
			return nil, eris.Wrapf(err, "source: open %s", p)
		}
		defer f.Close() //nolint:errcheck

		csvOpts := fetcher.CSVOptions{
			SkipRows:   opts.SkipRows,
			Comment:    opts.Comment,
			LazyQuotes: true,
			TrimSpace:  opts.TrimSpace,
		}
		if strings.EqualFold(filepath.Ext(p), ".tsv") {
			csvOpts.Delimiter = '\t'
		}
		cells, err := fetcher.ReadCSV(f, csvOpts)
		return cells, eris.Wrapf(err, "source: read %s", p)
	default:
		return nil, eris.Errorf("source: unsupported extract format %q", filepath.Ext(p))
	}
}

func download(ctx context.Context, rawURL string, opts Options) (string, func(), error) {
	if opts.Fetcher == nil {
		return "", nil, eris.New("source: no fetcher configured for remote extract")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, eris.Wrapf(err, "source: parse url %s", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "extract.csv"
	}

	dir, cleanup, err := workDir(opts.TempDir)
	if err != nil {
		return "", nil, err
	}
	dest := filepath.Join(dir, name)
	n, err := opts.Fetcher.DownloadToFile(ctx, rawURL, dest)
	if err != nil {
		cleanup()
		return "", nil, eris.Wrapf(err, "source: download %s", rawURL)
	}
	zap.L().Debug("source: downloaded extract", zap.String("url", rawURL), zap.Int64("bytes", n))
	return dest, cleanup, nil
}

// workDir creates a fresh directory under base. The returned func removes it.
func workDir(base string) (string, func(), error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", nil, eris.Wrapf(err, "source: create temp dir %s", base)
	}
	dir, err := os.MkdirTemp(base, "extract-")
	if err != nil {
		return "", nil, eris.Wrap(err, "source: create work dir")
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			zap.L().Warn("source: remove work dir", zap.String("dir", dir), zap.Error(err))
		}
	}, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
