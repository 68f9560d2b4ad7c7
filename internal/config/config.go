// Package config loads the typed configuration of the report from defaults,
// a YAML file, a .env file and SEGMENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"go-segment-report/internal/model"
	"go-segment-report/internal/pipeline"
	"go-segment-report/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the report.
const EnvPrefix = "SEGMENT"

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StoreConfig struct {
	// Path of the SQLite database; empty disables the store.
	Path string `mapstructure:"path"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// FetchConfig is the retry policy for sources given as http(s) URLs.
// Delays are duration strings ("500ms", "1m"); unparsable ones fall back to
// the defaults.
type FetchConfig struct {
	MaxAttempts  int    `mapstructure:"max_attempts"`
	InitialDelay string `mapstructure:"initial_delay"`
	MaxDelay     string `mapstructure:"max_delay"`
}

// RetryConfig converts the fetch settings into the ingestion retry policy.
func (f FetchConfig) RetryConfig() pipeline.RetryConfig {
	retry := pipeline.DefaultFetchRetry
	retry.MaxAttempts = f.MaxAttempts
	retry.InitialDelay = utils.ParseDuration(f.InitialDelay, retry.InitialDelay)
	retry.MaxDelay = utils.ParseDuration(f.MaxDelay, retry.MaxDelay)
	return retry
}

// Config is the full runtime configuration.
type Config struct {
	Report  model.ReportSpec `mapstructure:"report"`
	Server  ServerConfig     `mapstructure:"server"`
	Store   StoreConfig      `mapstructure:"store"`
	Output  OutputConfig     `mapstructure:"output"`
	Logging LoggingConfig    `mapstructure:"logging"`
	Cache   CacheConfig      `mapstructure:"cache"`
	Fetch   FetchConfig      `mapstructure:"fetch"`
}

// SetDefaults registers the default of every key that may be overridden
// from the environment.
func SetDefaults(v *viper.Viper) {
	spec := model.DefaultReportSpec()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.path", "data/segment_report.db")
	v.SetDefault("output.dir", "output")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("cache.size", 256)
	v.SetDefault("fetch.max_attempts", pipeline.DefaultFetchRetry.MaxAttempts)
	v.SetDefault("fetch.initial_delay", pipeline.DefaultFetchRetry.InitialDelay.String())
	v.SetDefault("fetch.max_delay", pipeline.DefaultFetchRetry.MaxDelay.String())

	for key, src := range map[string]model.Source{
		"report.customers":  spec.Customers,
		"report.operations": spec.Operations,
		"report.risk_bands": spec.RiskBands,
	} {
		v.SetDefault(key+".name", src.Name)
		v.SetDefault(key+".type", src.Type)
		v.SetDefault(key+".path", src.Path)
		v.SetDefault(key+".delimiter", src.Delimiter)
		v.SetDefault(key+".encoding", src.Encoding)
		v.SetDefault(key+".sheet", src.Sheet)
		v.SetDefault(key+".table", src.Table)
	}
	v.SetDefault("report.segment.column", spec.Segment.Column)
	v.SetDefault("report.segment.value", spec.Segment.Value)
	v.SetDefault("report.top_regions", spec.TopRegions)
}

// Load reads the configuration. A missing config file or .env file is not an
// error; defaults apply.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.SetConfigName("segment-report")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{Report: model.DefaultReportSpec()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Report.Customers.Path == "" {
		return fmt.Errorf("report.customers.path is required")
	}
	if c.Report.Segment.Column == "" {
		return fmt.Errorf("report.segment.column is required")
	}
	if c.Report.TopRegions < 0 {
		return fmt.Errorf("report.top_regions must not be negative, got %d", c.Report.TopRegions)
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch.max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// NewLogger builds the process logger for the configured level and format.
func NewLogger(cfg LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "console", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	return slog.New(handler), nil
}
