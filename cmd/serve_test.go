//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/uacensus/internal/model"
	"github.com/sells-group/uacensus/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	cfg = testConfig(t)
	ctx := context.Background()

	st, err := initStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	_, _, err = st.ReplaceDataset(ctx, []model.CleanRecord{
		{UANo: 1, UA: "Greater Mumbai", Year: 1961, Population: model.Int64(4152056)},
		{UANo: 1, UA: "Greater Mumbai", Year: 1971, Population: model.Int64(5970575)},
		{UANo: 2, UA: "Kolkata", Year: 1961},
	}, []model.Trend{{UANo: 1, UA: "Greater Mumbai", FirstYear: 1961, LastYear: 1971, Years: 2}})
	require.NoError(t, err)

	return buildRouter(st, []string{"*"}, cfg.Output.YearsPath()), st
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServe_Health(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_Records(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/records")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.CleanRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 3)

	rec = get(t, h, "/records?ua_no=1&year=1971")
	require.Equal(t, http.StatusOK, rec.Code)
	var one []model.CleanRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&one))
	require.Len(t, one, 1)
	require.NotNil(t, one[0].Population)
	assert.Equal(t, int64(5970575), *one[0].Population)
}

func TestServe_Records_EmptyIsArray(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/records?year=2011")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServe_Records_BadQuery(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/records?year=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "year must be a non-negative integer")

	rec = get(t, h, "/records?ua_no=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_Trends(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/trends")
	require.Equal(t, http.StatusOK, rec.Code)
	var trends []model.Trend
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&trends))
	require.Len(t, trends, 1)
	assert.Equal(t, "Greater Mumbai", trends[0].UA)
}

func TestServe_Years(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/years")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run summarize first")

	_, err := runClean(context.Background(), cfg)
	require.NoError(t, err)
	_, err = runSummarize(cfg)
	require.NoError(t, err)

	rec = get(t, h, "/years")
	require.Equal(t, http.StatusOK, rec.Code)
	var years []model.YearTotal
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&years))
	require.Len(t, years, 2)
	assert.Equal(t, 1961, years[0].Year)
	assert.Equal(t, int64(4152056+4400000), years[0].Population)
}

func TestServe_Runs(t *testing.T) {
	h, st := newTestRouter(t)
	run, err := st.CreateRun(context.Background(), "out/ua_clean.csv")
	require.NoError(t, err)

	rec := get(t, h, "/runs?status=running")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = get(t, h, "/runs?status=failed")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServe_CORS(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_NotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeCmd_InvalidPort(t *testing.T) {
	cfg = testConfig(t)
	cfg.Server.Port = -1
	servePort = 0
	withContext(t, serveCmd)

	err := serveCmd.RunE(serveCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}
