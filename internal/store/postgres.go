package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/uacensus/internal/db"
	"github.com/sells-group/uacensus/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

var _ Store = (*PostgresStore)(nil)

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	applyPoolConfig(pgxCfg, poolCfg)

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// applyPoolConfig sets pool sizing on pgxCfg. Zero or nil values fall back
// to 4 max and 1 min connections.
func applyPoolConfig(pgxCfg *pgxpool.Config, poolCfg *PoolConfig) {
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ua_records (
	ua_no              INTEGER NOT NULL,
	ua                 TEXT NOT NULL,
	year               INTEGER NOT NULL,
	area               DOUBLE PRECISION,
	population         BIGINT,
	pop_change         BIGINT,
	pop_change_percent DOUBLE PRECISION,
	pop_male           BIGINT,
	pop_female         BIGINT,
	PRIMARY KEY (ua_no, year)
);

CREATE TABLE IF NOT EXISTS ua_trends (
	ua_no            INTEGER PRIMARY KEY,
	ua               TEXT NOT NULL,
	first_year       INTEGER NOT NULL,
	last_year        INTEGER NOT NULL,
	years            INTEGER NOT NULL,
	ratio_points     INTEGER NOT NULL,
	mean_sex_ratio   DOUBLE PRECISION,
	sex_ratio_slope  DOUBLE PRECISION,
	population_slope DOUBLE PRECISION,
	population_first BIGINT,
	population_last  BIGINT
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	records      INTEGER NOT NULL DEFAULT 0,
	trends       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_ua_records_year ON ua_records(year);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplaceDataset(ctx context.Context, records []model.CleanRecord, trends []model.Trend) (int64, int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, eris.Wrap(err, "postgres: replace dataset: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	nr, err := db.ReplaceTable(ctx, tx, "ua_records", recordColumns, recordRows(records))
	if err != nil {
		return 0, 0, eris.Wrap(err, "postgres: replace dataset")
	}
	nt, err := db.ReplaceTable(ctx, tx, "ua_trends", trendColumns, trendRows(trends))
	if err != nil {
		return 0, 0, eris.Wrap(err, "postgres: replace dataset")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, eris.Wrap(err, "postgres: replace dataset: commit tx")
	}
	return nr, nt, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.CleanRecord, error) {
	query := `SELECT ` + strings.Join(recordColumns, ", ") + ` FROM ua_records WHERE 1=1`
	var args []any

	if filter.UANo > 0 {
		args = append(args, filter.UANo)
		query += ` AND ua_no = $` + strconv.Itoa(len(args))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		query += ` AND year = $` + strconv.Itoa(len(args))
	}
	args = append(args, listLimit(filter.Limit))
	query += ` ORDER BY ua_no, year LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var out []model.CleanRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func (s *PostgresStore) ListTrends(ctx context.Context) ([]model.Trend, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+strings.Join(trendColumns, ", ")+` FROM ua_trends ORDER BY ua_no`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list trends")
	}
	defer rows.Close()

	var out []model.Trend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan trend")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list trends iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, source string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, status, created_at) VALUES ($1, $2, $3, $4)`,
		id, source, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, records, trends int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, records = $2, trends = $3, completed_at = $4 WHERE id = $5`,
		string(model.RunStatusComplete), records, trends, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, records, trends, error, created_at, completed_at FROM runs`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` WHERE status = $1`
	}
	args = append(args, listLimit(filter.Limit))
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var status string
		if err := rows.Scan(&r.ID, &r.Source, &status, &r.Records, &r.Trends, &r.Error, &r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
