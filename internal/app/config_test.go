package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, time.Hour, cfg.BASCacheTTL)
	assert.Equal(t, 30, cfg.ReportRateLimit)
	assert.Equal(t, "0 2 * * *", cfg.ReportSweepCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BAS_CACHE_TTL", "15m")
	t.Setenv("WORKER_CONCURRENCY", "12")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.BASCacheTTL)
	assert.Equal(t, 12, cfg.WorkerConcurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_PER_MINUTE", "60")
	t.Setenv("BAS_CACHE_TTL", "-1s")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("BAS_CACHE_TTL", "soon")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(" Debug ").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "ERROR", parseLevel("error").String())
	assert.Equal(t, "INFO", parseLevel("").String())
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "true")
	assert.True(t, RefreshTestMode())
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	assert.False(t, RefreshTestMode())
	assert.False(t, InTestMode())
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinicbooks.env")
	require.NoError(t, os.WriteFile(path, []byte("REPORT_RATE_LIMIT_PER_MINUTE=7\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("REPORT_RATE_LIMIT_PER_MINUTE", "")
	require.NoError(t, os.Unsetenv("REPORT_RATE_LIMIT_PER_MINUTE"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ReportRateLimit)
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinicbooks.log")
	logger := NewLogger(&Config{LogFormat: "json", LogFile: path, LogFileMaxMB: 1})
	logger.Info("file sink", "clinic", "c1")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"msg":"file sink"`))
}
