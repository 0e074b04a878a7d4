package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Clean  CleanConfig  `yaml:"clean" mapstructure:"clean"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig describes where the census extract lives and how to read it.
type SourceConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
	SheetIndex  int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	SkipRows    int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// TrimSpace and Comment apply to delimited text extracts only.
	TrimSpace bool   `yaml:"trim_space" mapstructure:"trim_space"`
	Comment   string `yaml:"comment" mapstructure:"comment"`
}

// CleanConfig configures record reconstruction.
type CleanConfig struct {
	MinYear int `yaml:"min_year" mapstructure:"min_year"`
}

// OutputConfig names the files written by clean and summarize.
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	RecordsFile string `yaml:"records_file" mapstructure:"records_file"`
	TrendsFile  string `yaml:"trends_file" mapstructure:"trends_file"`
	YearsFile   string `yaml:"years_file" mapstructure:"years_file"`
	Manifest    string `yaml:"manifest" mapstructure:"manifest"`
}

// RecordsPath returns the clean record table path.
func (o OutputConfig) RecordsPath() string { return filepath.Join(o.Dir, o.RecordsFile) }

// TrendsPath returns the trend table path.
func (o OutputConfig) TrendsPath() string { return filepath.Join(o.Dir, o.TrendsFile) }

// YearsPath returns the per-year totals path.
func (o OutputConfig) YearsPath() string { return filepath.Join(o.Dir, o.YearsFile) }

// ManifestPath returns the run manifest path.
func (o OutputConfig) ManifestPath() string { return filepath.Join(o.Dir, o.Manifest) }

// RenderConfig configures chart output.
type RenderConfig struct {
	Dir         string  `yaml:"dir" mapstructure:"dir"`
	WidthInch   float64 `yaml:"width_inch" mapstructure:"width_inch"`
	HeightInch  float64 `yaml:"height_inch" mapstructure:"height_inch"`
	TopN        int     `yaml:"top_n" mapstructure:"top_n"`
	Facets      bool    `yaml:"facets" mapstructure:"facets"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the read-only API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("UACENSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.path", "")
	v.SetDefault("source.sheet", "")
	v.SetDefault("source.sheet_index", 0)
	v.SetDefault("source.skip_rows", 0)
	v.SetDefault("source.temp_dir", "/tmp/uacensus")
	v.SetDefault("source.user_agent", "uacensus/1.0")
	v.SetDefault("source.timeout_secs", 60)
	v.SetDefault("source.trim_space", true)
	v.SetDefault("source.comment", "")
	v.SetDefault("clean.min_year", 1961)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.records_file", "ua_clean.csv")
	v.SetDefault("output.trends_file", "ua_trends.csv")
	v.SetDefault("output.years_file", "ua_years.csv")
	v.SetDefault("output.manifest", "manifest.yaml")
	v.SetDefault("render.dir", "charts")
	v.SetDefault("render.width_inch", 8.0)
	v.SetDefault("render.height_inch", 5.0)
	v.SetDefault("render.top_n", 10)
	v.SetDefault("render.facets", false)
	v.SetDefault("render.concurrency", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "uacensus.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings needed by the given command mode are
// present and in range. Modes: clean, summarize, plot, load, serve.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Source.SkipRows < 0 {
		errs = append(errs, fmt.Sprintf("source.skip_rows must be >= 0, got %d", c.Source.SkipRows))
	}
	if len([]rune(c.Source.Comment)) > 1 {
		errs = append(errs, fmt.Sprintf("source.comment must be a single character, got %q", c.Source.Comment))
	}
	if c.Clean.MinYear < 1000 || c.Clean.MinYear > 9999 {
		errs = append(errs, fmt.Sprintf("clean.min_year must be a four-digit year, got %d", c.Clean.MinYear))
	}
	if c.Render.Concurrency < 1 || c.Render.Concurrency > 32 {
		errs = append(errs, fmt.Sprintf("render.concurrency must be between 1 and 32, got %d", c.Render.Concurrency))
	}

	switch mode {
	case "clean":
		if c.Source.Path == "" {
			errs = append(errs, "source.path is required")
		}
	case "summarize", "plot":
	case "load":
		errs = append(errs, c.storeErrors()...)
	case "serve":
		errs = append(errs, c.storeErrors()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) storeErrors() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.MinConns < 0 || c.Store.MaxConns < 0 {
		errs = append(errs, "store.min_conns and store.max_conns must be >= 0")
	}
	if c.Store.MaxConns > 0 && c.Store.MinConns > c.Store.MaxConns {
		errs = append(errs, fmt.Sprintf("store.min_conns (%d) must not exceed store.max_conns (%d)", c.Store.MinConns, c.Store.MaxConns))
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
