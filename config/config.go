// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/generic"
)

// Config holds the settings for the server and the CLI.
type Config struct {
	HTTPPort int
	DBPath   string

	WorkWindow    attendance.WorkWindow
	MaxDailyHours generic.Amount

	SweepInterval     time.Duration
	SweepLookbackDays int

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		HTTPPort:          8080,
		DBPath:            "officequota.db",
		WorkWindow:        attendance.DefaultWorkWindow(),
		MaxDailyHours:     generic.NewAmountFromInt(attendance.DefaultMaxDailyHours, generic.UnitHours),
		SweepInterval:     time.Hour,
		SweepLookbackDays: 7,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load parses OFFICEQUOTA_* variables on top of Default. Every invalid
// variable is reported in a single error.
func Load() (Config, error) {
	cfg := Default()
	var invalid []string

	env := func(key string) string { return strings.TrimSpace(os.Getenv("OFFICEQUOTA_" + key)) }

	if v := env("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "OFFICEQUOTA_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if v := env("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := env("WORK_START"); v != "" {
		c, err := generic.ParseClock(v)
		if err != nil {
			invalid = append(invalid, "OFFICEQUOTA_WORK_START")
		} else {
			cfg.WorkWindow.Open = c
		}
	}

	if v := env("WORK_END"); v != "" {
		c, err := generic.ParseClock(v)
		if err != nil {
			invalid = append(invalid, "OFFICEQUOTA_WORK_END")
		} else {
			cfg.WorkWindow.Close = c
		}
	}

	if cfg.WorkWindow.Close.Minutes() <= cfg.WorkWindow.Open.Minutes() {
		invalid = append(invalid, "OFFICEQUOTA_WORK_END (must be after OFFICEQUOTA_WORK_START)")
	}

	if v := env("MAX_DAILY_HOURS"); v != "" {
		h, err := decimal.NewFromString(v)
		if err != nil || !h.IsPositive() || h.GreaterThan(decimal.NewFromInt(24)) {
			invalid = append(invalid, "OFFICEQUOTA_MAX_DAILY_HOURS")
		} else {
			cfg.MaxDailyHours = generic.Amount{Value: h, Unit: generic.UnitHours}
		}
	}

	if v := env("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "OFFICEQUOTA_SWEEP_INTERVAL")
		} else {
			cfg.SweepInterval = d
		}
	}

	if v := env("SWEEP_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, "OFFICEQUOTA_SWEEP_LOOKBACK_DAYS")
		} else {
			cfg.SweepLookbackDays = n
		}
	}

	if v := env("LOG_LEVEL"); v != "" {
		switch v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			invalid = append(invalid, "OFFICEQUOTA_LOG_LEVEL")
		}
	}

	if v := env("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "console":
			cfg.LogFormat = v
		default:
			invalid = append(invalid, "OFFICEQUOTA_LOG_FORMAT")
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Aggregator builds the session aggregator for this configuration.
func (c Config) Aggregator() *attendance.Aggregator {
	return attendance.NewAggregator(c.WorkWindow, c.MaxDailyHours)
}
