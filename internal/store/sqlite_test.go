package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uacensus/internal/config"
	"github.com/sells-group/uacensus/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRecords() []model.CleanRecord {
	return []model.CleanRecord{
		{UANo: 1, UA: "Greater Mumbai", Year: 1961, Area: model.Float64(437.71), Population: model.Int64(4152056), PopMale: model.Int64(2496000), PopFemale: model.Int64(1656056)},
		{UANo: 1, UA: "Greater Mumbai", Year: 1971, Population: model.Int64(5970575)},
		{UANo: 2, UA: "Kolkata", Year: 1961, Population: model.Int64(4400000)},
	}
}

func sampleTrends() []model.Trend {
	return []model.Trend{
		{UANo: 2, UA: "Kolkata", FirstYear: 1961, LastYear: 1961, Years: 1},
		{UANo: 1, UA: "Greater Mumbai", FirstYear: 1961, LastYear: 1971, Years: 2, RatioPoints: 1,
			MeanSexRatio: model.Float64(663.5), PopulationSlope: model.Float64(181851.9),
			PopulationFirst: model.Int64(4152056), PopulationLast: model.Int64(5970575)},
	}
}

// --- Dataset ---

func TestSQLite_ReplaceAndListRecords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	nr, nt, err := st.ReplaceDataset(ctx, sampleRecords(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), nr)
	assert.Equal(t, int64(0), nt)

	out, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Greater Mumbai", out[0].UA)
	assert.Equal(t, 1961, out[0].Year)
	require.NotNil(t, out[0].Area)
	assert.InDelta(t, 437.71, *out[0].Area, 1e-9)
	require.NotNil(t, out[0].PopFemale)
	assert.Equal(t, int64(1656056), *out[0].PopFemale)

	// Missing measurements survive as NULL.
	assert.Nil(t, out[1].Area)
	assert.Nil(t, out[1].PopMale)
	assert.Equal(t, 2, out[2].UANo)
}

func TestSQLite_ReplaceDataset_Replaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, _, err := st.ReplaceDataset(ctx, sampleRecords(), sampleTrends())
	require.NoError(t, err)
	_, _, err = st.ReplaceDataset(ctx, sampleRecords()[:1], sampleTrends()[:1])
	require.NoError(t, err)

	out, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	trends, err := st.ListTrends(ctx)
	require.NoError(t, err)
	assert.Len(t, trends, 1)
}

func TestSQLite_ListRecords_Filter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	_, _, err := st.ReplaceDataset(ctx, sampleRecords(), nil)
	require.NoError(t, err)

	byUA, err := st.ListRecords(ctx, RecordFilter{UANo: 1})
	require.NoError(t, err)
	assert.Len(t, byUA, 2)

	byYear, err := st.ListRecords(ctx, RecordFilter{Year: 1961})
	require.NoError(t, err)
	assert.Len(t, byYear, 2)

	both, err := st.ListRecords(ctx, RecordFilter{UANo: 2, Year: 1961})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Kolkata", both[0].UA)

	limited, err := st.ListRecords(ctx, RecordFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_ReplaceDataset_DuplicateRecordRollsBack(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	_, _, err := st.ReplaceDataset(ctx, sampleRecords(), sampleTrends())
	require.NoError(t, err)

	dup := []model.CleanRecord{{UANo: 9, UA: "X", Year: 1961}, {UANo: 9, UA: "X", Year: 1961}}
	_, _, err = st.ReplaceDataset(ctx, dup, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: replace ua_records: insert")

	out, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	trends, err := st.ListTrends(ctx)
	require.NoError(t, err)
	assert.Len(t, trends, 2)
}

func TestSQLite_ReplaceDataset_TrendFailureKeepsRecords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	_, _, err := st.ReplaceDataset(ctx, sampleRecords(), sampleTrends())
	require.NoError(t, err)

	// The records step succeeds; the trends step hits the ua_no primary key.
	dupTrends := []model.Trend{{UANo: 5, UA: "A"}, {UANo: 5, UA: "A"}}
	_, _, err = st.ReplaceDataset(ctx, sampleRecords()[:1], dupTrends)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: replace ua_trends: insert")

	out, err := st.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	trends, err := st.ListTrends(ctx)
	require.NoError(t, err)
	assert.Len(t, trends, 2)
}

func TestSQLite_ReplaceAndListTrends(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, n, err := st.ReplaceDataset(ctx, nil, sampleTrends())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	out, err := st.ListTrends(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].UANo)
	require.NotNil(t, out[0].MeanSexRatio)
	assert.InDelta(t, 663.5, *out[0].MeanSexRatio, 1e-9)
	assert.Nil(t, out[0].SexRatioSlope)
	assert.Nil(t, out[1].MeanSexRatio)
}

// --- Runs ---

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "A-4.xlsx")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	require.NoError(t, st.CompleteRun(ctx, run.ID, 120, 40))

	failed, err := st.CreateRun(ctx, "broken.csv")
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, failed.ID, "no rows"))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byID := map[string]model.Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	done := byID[run.ID]
	assert.Equal(t, model.RunStatusComplete, done.Status)
	assert.Equal(t, 120, done.Records)
	assert.Equal(t, 40, done.Trends)
	assert.NotNil(t, done.CompletedAt)

	bad := byID[failed.ID]
	assert.Equal(t, model.RunStatusFailed, bad.Status)
	assert.Equal(t, "no rows", bad.Error)

	onlyFailed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, failed.ID, onlyFailed[0].ID)
}

func TestSQLite_CompleteRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteRun(context.Background(), "nope", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found: nope")
}

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
