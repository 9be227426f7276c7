// Package config loads server configuration from an optional YAML file and
// KPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // calendar zones resolve without a system zoneinfo

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override,
// e.g. KPI_SERVER_PORT or KPI_CALENDAR_TIME_ZONE.
const EnvPrefix = "KPI"

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Holidays  HolidaysConfig  `mapstructure:"holidays"`
	History   HistoryConfig   `mapstructure:"history"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CalendarConfig fixes the civil calendar "today" is read in.
type CalendarConfig struct {
	TimeZone string `mapstructure:"time_zone"`
}

type HolidaysConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// HistoryConfig holds the default number of periods returned by history
// queries that do not pass a limit.
type HistoryConfig struct {
	WeeklyLimit  int `mapstructure:"weekly_limit"`
	MonthlyLimit int `mapstructure:"monthly_limit"`
}

type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputFile string `mapstructure:"output_file"` // optional file output
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configPath (may be empty) and applies environment overrides.
// A missing default config file is not an error; a missing explicit one is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.path", "kpi.db")

	v.SetDefault("calendar.time_zone", "America/Sao_Paulo")
	v.SetDefault("holidays.cache_size", 512)

	v.SetDefault("history.weekly_limit", 4)
	v.SetDefault("history.monthly_limit", 6)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_file", "")

	v.SetDefault("metrics.enabled", true)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil || c.Calendar.TimeZone == "" {
		return fmt.Errorf("calendar.time_zone %q is not a known time zone", c.Calendar.TimeZone)
	}
	if c.Holidays.CacheSize <= 0 {
		return fmt.Errorf("holidays.cache_size must be positive, got %d", c.Holidays.CacheSize)
	}
	if c.History.WeeklyLimit <= 0 || c.History.MonthlyLimit <= 0 {
		return fmt.Errorf("history limits must be positive, got weekly=%d monthly=%d",
			c.History.WeeklyLimit, c.History.MonthlyLimit)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive, got %s", c.Scheduler.Interval)
	}
	return nil
}
