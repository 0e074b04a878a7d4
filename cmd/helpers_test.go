//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/uacensus/internal/config"
)

const testExtract = "TABLE A-4 URBAN AGGLOMERATIONS\n" +
	"1,Greater Mumbai,Mumbai,,UA\n" +
	",,,1951,,,2966902,,,,\n" +
	",,,1961,,437.71,4152056,1186154,39.98,2496000,1656056\n" +
	",,,1971,,603.00,5970575,1818519,43.80,3478000,2492575\n" +
	"2,Kolkata,Kolkata,,UA\n" +
	",,,1961,,,4400000,,,2600000,1800000\n" +
	",,,1971,,,5100000,,,2900000,2200000\n" +
	",,,NA,,,,,,,\n"

// testConfig points every input and output at a fresh temp dir and writes
// the sample extract there.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	extract := filepath.Join(dir, "a4.csv")
	require.NoError(t, os.WriteFile(extract, []byte(testExtract), 0o644))

	c := &config.Config{}
	c.Source.Path = extract
	c.Source.SkipRows = 1
	c.Source.TempDir = filepath.Join(dir, "tmp")
	c.Clean.MinYear = 1961
	c.Output = config.OutputConfig{
		Dir:         filepath.Join(dir, "out"),
		RecordsFile: "ua_clean.csv",
		TrendsFile:  "ua_trends.csv",
		YearsFile:   "ua_years.csv",
		Manifest:    "manifest.yaml",
	}
	c.Render = config.RenderConfig{
		Dir:         filepath.Join(dir, "charts"),
		WidthInch:   4,
		HeightInch:  3,
		TopN:        5,
		Concurrency: 2,
	}
	c.Store = config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "test.db")}
	c.Server.Port = 8080
	c.Server.AllowedOrigins = []string{"*"}
	c.Log = config.LogConfig{Level: "info", Format: "json"}
	return c
}

func withContext(t *testing.T, cmds ...interface{ SetContext(context.Context) }) {
	t.Helper()
	for _, c := range cmds {
		c.SetContext(context.Background())
	}
}
