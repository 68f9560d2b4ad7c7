package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-segment-report/internal/pipeline"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/segment_report.db", cfg.Store.Path)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, 256, cfg.Cache.Size)
	assert.Equal(t, "DESC_CBO", cfg.Report.Segment.Column)
	assert.Equal(t, "DADOS", cfg.Report.Customers.Sheet)
	assert.Equal(t, 5, cfg.Report.TopRegions)
	assert.NotEmpty(t, cfg.Report.Columns.Usage)
	assert.Equal(t, pipeline.DefaultFetchRetry, cfg.Fetch.RetryConfig())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SEGMENT_SERVER_ADDR", ":9090")
	t.Setenv("SEGMENT_REPORT_TOP_REGIONS", "3")
	t.Setenv("SEGMENT_REPORT_RISK_BANDS_ENCODING", "cp1252")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Report.TopRegions)
	assert.Equal(t, "cp1252", cfg.Report.RiskBands.Encoding)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment-report.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
report:
  customers:
    path: /data/clientes.xlsx
  segment:
    value: Servidor público
logging:
  format: json
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/data/clientes.xlsx", cfg.Report.Customers.Path)
	assert.Equal(t, "Servidor público", cfg.Report.Segment.Value)
	assert.Equal(t, "DESC_CBO", cfg.Report.Segment.Column)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SEGMENT_LOGGING_LEVEL":      "verbose",
		"SEGMENT_LOGGING_FORMAT":     "xml",
		"SEGMENT_REPORT_TOP_REGIONS": "-1",
		"SEGMENT_FETCH_MAX_ATTEMPTS": "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(viper.New(), "")
			assert.Error(t, err)
		})
	}
}

func TestFetchRetryFromEnv(t *testing.T) {
	t.Setenv("SEGMENT_FETCH_MAX_ATTEMPTS", "5")
	t.Setenv("SEGMENT_FETCH_INITIAL_DELAY", "250ms")
	t.Setenv("SEGMENT_FETCH_MAX_DELAY", "soon")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	retry := cfg.Fetch.RetryConfig()
	assert.Equal(t, 5, retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, retry.InitialDelay)
	assert.Equal(t, pipeline.DefaultFetchRetry.MaxDelay, retry.MaxDelay, "unparsable delay falls back")
	assert.True(t, retry.Jitter)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "": slog.LevelInfo,
		"warn": slog.LevelWarn, "error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "section", "usage")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "usage", entry["section"])

	_, err = NewLogger(LoggingConfig{Format: "xml"}, &buf)
	assert.Error(t, err)
}
