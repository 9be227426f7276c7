package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "kpi.db", cfg.Database.Path)
	assert.Equal(t, "America/Sao_Paulo", cfg.Calendar.TimeZone)
	assert.Equal(t, 4, cfg.History.WeeklyLimit)
	assert.Equal(t, 6, cfg.History.MonthlyLimit)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.True(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	// GIVEN: A YAML file and an environment override
	// THEN: The environment wins over the file, the file over defaults

	path := filepath.Join(t.TempDir(), "kpi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
database:
  path: /tmp/kpi-test.db
scheduler:
  interval: 15m
`), 0o600))
	t.Setenv("KPI_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/tmp/kpi-test.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 512, cfg.Holidays.CacheSize)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":           func(c *Config) { c.Server.Port = 0 },
		"database":       func(c *Config) { c.Database.Path = "" },
		"time zone":      func(c *Config) { c.Calendar.TimeZone = "Mars/Olympus" },
		"cache size":     func(c *Config) { c.Holidays.CacheSize = 0 },
		"history":        func(c *Config) { c.History.MonthlyLimit = -1 },
		"scheduler tick": func(c *Config) { c.Scheduler.Interval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.Interval = 0
	assert.NoError(t, cfg.Validate(), "interval is ignored when the scheduler is off")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "info", Format: "console"}, "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "override enables debug")

	_, err = NewLogger(LoggingConfig{Level: "loud"}, "")
	assert.Error(t, err)

	_, err = NewLogger(LoggingConfig{Format: "xml"}, "")
	assert.Error(t, err)

	out := filepath.Join(t.TempDir(), "logs", "kpi.log")
	logger, err = NewLogger(LoggingConfig{OutputFile: out}, "")
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	_, err = os.Stat(out)
	assert.NoError(t, err)
}
