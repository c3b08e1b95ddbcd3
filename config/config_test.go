package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-quota/config"
	"github.com/warp/office-quota/generic"
)

var allKeys = []string{
	"OFFICEQUOTA_HTTP_PORT", "OFFICEQUOTA_DB_PATH", "OFFICEQUOTA_WORK_START", "OFFICEQUOTA_WORK_END",
	"OFFICEQUOTA_MAX_DAILY_HOURS", "OFFICEQUOTA_SWEEP_INTERVAL", "OFFICEQUOTA_SWEEP_LOOKBACK_DAYS",
	"OFFICEQUOTA_LOG_LEVEL", "OFFICEQUOTA_LOG_FORMAT",
}

// clearEnv blanks every variable so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.Default().HTTPPort, cfg.HTTPPort)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "officequota.db", cfg.DBPath)
	assert.Equal(t, generic.Clock{Hour: 7}, cfg.WorkWindow.Open)
	assert.Equal(t, generic.Clock{Hour: 19}, cfg.WorkWindow.Close)
	assert.Equal(t, "10", cfg.MaxDailyHours.Value.String())
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 7, cfg.SweepLookbackDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OFFICEQUOTA_HTTP_PORT", "9090")
	t.Setenv("OFFICEQUOTA_DB_PATH", "/tmp/q.db")
	t.Setenv("OFFICEQUOTA_WORK_START", "08:30")
	t.Setenv("OFFICEQUOTA_WORK_END", "18:00")
	t.Setenv("OFFICEQUOTA_MAX_DAILY_HOURS", "9.5")
	t.Setenv("OFFICEQUOTA_SWEEP_INTERVAL", "15m")
	t.Setenv("OFFICEQUOTA_SWEEP_LOOKBACK_DAYS", "3")
	t.Setenv("OFFICEQUOTA_LOG_LEVEL", "debug")
	t.Setenv("OFFICEQUOTA_LOG_FORMAT", "console")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "/tmp/q.db", cfg.DBPath)
	assert.Equal(t, generic.Clock{Hour: 8, Minute: 30}, cfg.WorkWindow.Open)
	assert.Equal(t, generic.Clock{Hour: 18}, cfg.WorkWindow.Close)
	assert.Equal(t, "9.5", cfg.MaxDailyHours.Value.String())
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 3, cfg.SweepLookbackDays)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)

	agg := cfg.Aggregator()
	assert.Equal(t, cfg.WorkWindow, agg.Window)
	assert.True(t, agg.MaxDailyHours.Equal(cfg.MaxDailyHours))
}

func TestLoad_ReportsEveryInvalidKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OFFICEQUOTA_HTTP_PORT", "eighty")
	t.Setenv("OFFICEQUOTA_MAX_DAILY_HOURS", "-1")
	t.Setenv("OFFICEQUOTA_LOG_FORMAT", "xml")

	_, err := config.Load()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "OFFICEQUOTA_HTTP_PORT")
	assert.Contains(t, err.Error(), "OFFICEQUOTA_MAX_DAILY_HOURS")
	assert.Contains(t, err.Error(), "OFFICEQUOTA_LOG_FORMAT")
	assert.NotContains(t, err.Error(), "OFFICEQUOTA_SWEEP_INTERVAL")
}

func TestLoad_WindowMustBeOrdered(t *testing.T) {
	clearEnv(t)
	t.Setenv("OFFICEQUOTA_WORK_START", "18:00")
	t.Setenv("OFFICEQUOTA_WORK_END", "09:00")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be after OFFICEQUOTA_WORK_START")
}
