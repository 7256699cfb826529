package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackedKeys = []string{
	"APP_ENV", "APP_TIMEZONE", "DATABASE_URL", "DB_MIN_CONNS", "DB_MAX_CONNS",
	"REDIS_URL", "REDIS_ENABLED", "SCHEDULER_ENABLED", "SCHEDULER_REFRESH_INTERVAL",
	"SCHEDULER_ROLLOVER_TIME", "DASHBOARD_MONTHS", "LOG_FORMAT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range trackedKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "learning-tracker", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, "tracker.db", cfg.Database.URL)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.RefreshInterval)
	assert.Equal(t, "00:05", cfg.Scheduler.RolloverTime)
	assert.Equal(t, 6, cfg.Dashboard.Months)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	t.Setenv("DATABASE_URL", "postgres://tracker:secret@db:5432/tracker")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("DASHBOARD_MONTHS", "12")
	t.Setenv("SCHEDULER_REFRESH_INTERVAL", "not-a-duration")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Europe/Berlin", cfg.App.Location.String())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled, "a redis URL enables the cache")
	assert.Equal(t, 12, cfg.Dashboard.Months)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.RefreshInterval, "unparsable values fall back to the default")
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		url  string
		want Driver
	}{
		{"postgres://localhost/tracker", DriverPostgres},
		{"postgresql://localhost/tracker", DriverPostgres},
		{"memory", DriverMemory},
		{"", DriverMemory},
		{"tracker.db", DriverSQLite},
		{"file:tracker.db?_busy_timeout=5000", DriverSQLite},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DriverFor(tt.url), tt.url)
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	t.Setenv("DATABASE_URL", "memory")
	t.Setenv("DB_MIN_CONNS", "10")
	t.Setenv("SCHEDULER_ROLLOVER_TIME", "midnight")
	t.Setenv("DASHBOARD_MONTHS", "0")
	t.Setenv("LOG_FORMAT", "xml")

	err := FromEnv().Validate()
	require.Error(t, err)

	for _, want := range []string{
		"APP_TIMEZONE",
		"persistent store in production",
		"DB_MIN_CONNS",
		"SCHEDULER_ROLLOVER_TIME",
		"DASHBOARD_MONTHS",
		"LOG_FORMAT",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL=memory\nLOG_LEVEL=debug\nDASHBOARD_MONTHS=3\n"), 0o600))

	// godotenv only fills unset variables.
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("DASHBOARD_MONTHS")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Dashboard.Months)
	assert.Equal(t, "warn", cfg.Observability.LogLevel, "existing variables win over .env")
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
