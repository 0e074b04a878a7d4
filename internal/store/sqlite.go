package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/uacensus/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ua_records (
	ua_no              INTEGER NOT NULL,
	ua                 TEXT NOT NULL,
	year               INTEGER NOT NULL,
	area               REAL,
	population         INTEGER,
	pop_change         INTEGER,
	pop_change_percent REAL,
	pop_male           INTEGER,
	pop_female         INTEGER,
	PRIMARY KEY (ua_no, year)
);

CREATE TABLE IF NOT EXISTS ua_trends (
	ua_no            INTEGER PRIMARY KEY,
	ua               TEXT NOT NULL,
	first_year       INTEGER NOT NULL,
	last_year        INTEGER NOT NULL,
	years            INTEGER NOT NULL,
	ratio_points     INTEGER NOT NULL,
	mean_sex_ratio   REAL,
	sex_ratio_slope  REAL,
	population_slope REAL,
	population_first INTEGER,
	population_last  INTEGER
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	records      INTEGER NOT NULL DEFAULT 0,
	trends       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_ua_records_year ON ua_records(year);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceDataset swaps both tables in a single transaction.
func (s *SQLiteStore) ReplaceDataset(ctx context.Context, records []model.CleanRecord, trends []model.Trend) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: replace dataset: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	nr, err := replaceTable(ctx, tx, "ua_records", recordColumns, recordRows(records))
	if err != nil {
		return 0, 0, err
	}
	nt, err := replaceTable(ctx, tx, "ua_trends", trendColumns, trendRows(trends))
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, eris.Wrap(err, "sqlite: replace dataset: commit tx")
	}
	return nr, nt, nil
}

func replaceTable(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: delete", table)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+table+` (`+strings.Join(columns, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: prepare", table)
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: replace %s: insert", table)
		}
	}
	return int64(len(rows)), nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.CleanRecord, error) {
	query := `SELECT ` + strings.Join(recordColumns, ", ") + ` FROM ua_records WHERE 1=1`
	var args []any

	if filter.UANo > 0 {
		query += ` AND ua_no = ?`
		args = append(args, filter.UANo)
	}
	if filter.Year > 0 {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	query += ` ORDER BY ua_no, year LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.CleanRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) ListTrends(ctx context.Context) ([]model.Trend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(trendColumns, ", ")+` FROM ua_trends ORDER BY ua_no`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trends")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Trend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trend")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list trends iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, created_at) VALUES (?, ?, ?, ?)`,
		id, source, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, records, trends int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, records = ?, trends = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), records, trends, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, records, trends, error, created_at, completed_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &r.Records, &r.Trends, &r.Error, &r.CreatedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
