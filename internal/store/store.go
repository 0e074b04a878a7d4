// Package store persists cleaned census records, trends, and load runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/uacensus/internal/config"
	"github.com/sells-group/uacensus/internal/model"
)

// RecordFilter narrows ListRecords. Zero values match everything.
type RecordFilter struct {
	UANo  int `json:"ua_no,omitempty"`
	Year  int `json:"year,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for cleaned census data.
type Store interface {
	// Dataset. ReplaceDataset swaps records and trends atomically and
	// returns how many of each were written.
	ReplaceDataset(ctx context.Context, records []model.CleanRecord, trends []model.Trend) (int64, int64, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.CleanRecord, error)
	ListTrends(ctx context.Context) ([]model.Trend, error)

	// Runs
	CreateRun(ctx context.Context, source string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, records, trends int) error
	FailRun(ctx context.Context, runID string, msg string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 1000

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, poolConfig(cfg))
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

func poolConfig(cfg config.StoreConfig) *PoolConfig {
	return &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns}
}

var recordColumns = []string{
	"ua_no", "ua", "year", "area", "population", "pop_change",
	"pop_change_percent", "pop_male", "pop_female",
}

var trendColumns = []string{
	"ua_no", "ua", "first_year", "last_year", "years", "ratio_points",
	"mean_sex_ratio", "sex_ratio_slope", "population_slope",
	"population_first", "population_last",
}

func recordValues(r model.CleanRecord) []any {
	return []any{
		r.UANo, r.UA, r.Year, r.Area, r.Population, r.PopChange,
		r.PopChangePercent, r.PopMale, r.PopFemale,
	}
}

func trendValues(t model.Trend) []any {
	return []any{
		t.UANo, t.UA, t.FirstYear, t.LastYear, t.Years, t.RatioPoints,
		t.MeanSexRatio, t.SexRatioSlope, t.PopulationSlope,
		t.PopulationFirst, t.PopulationLast,
	}
}

func recordRows(records []model.CleanRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = recordValues(r)
	}
	return rows
}

func trendRows(trends []model.Trend) [][]any {
	rows := make([][]any, len(trends))
	for i, t := range trends {
		rows[i] = trendValues(t)
	}
	return rows
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (model.CleanRecord, error) {
	var r model.CleanRecord
	err := row.Scan(
		&r.UANo, &r.UA, &r.Year, &r.Area, &r.Population, &r.PopChange,
		&r.PopChangePercent, &r.PopMale, &r.PopFemale,
	)
	return r, err
}

func scanTrend(row scannable) (model.Trend, error) {
	var t model.Trend
	err := row.Scan(
		&t.UANo, &t.UA, &t.FirstYear, &t.LastYear, &t.Years, &t.RatioPoints,
		&t.MeanSexRatio, &t.SexRatioSlope, &t.PopulationSlope,
		&t.PopulationFirst, &t.PopulationLast,
	)
	return t, err
}

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
