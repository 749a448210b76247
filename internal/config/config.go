// Package config loads the ladder CLI configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sky-flux/ladder"
)

const (
	DefaultPassThreshold = 0.8
	DefaultMaxStage      = 3
	DefaultResetStage    = 1
)

// Config holds the application configuration.
type Config struct {
	DBPath        string         `toml:"db_path"`
	LogLevel      string         `toml:"log_level"`
	LogFile       string         `toml:"log_file"`
	PassThreshold float64        `toml:"pass_threshold"`
	MaxStage      int            `toml:"max_stage"`
	ResetStage    int            `toml:"reset_stage"`
	Jitter        float64        `toml:"jitter"`
	StageDays     map[string]int `toml:"stage_days"`
}

// Default returns the configuration used when no config file exists:
// the standard 1/7/30-day ladder with a 0.8 pass threshold, stored under
// ~/.ladder.
func Default() *Config {
	dir := ladderDir()
	return &Config{
		DBPath:        filepath.Join(dir, "ladder.db"),
		LogLevel:      "info",
		PassThreshold: DefaultPassThreshold,
		MaxStage:      DefaultMaxStage,
		ResetStage:    DefaultResetStage,
		StageDays:     map[string]int{"1": 1, "2": 7, "3": 30},
	}
}

// DefaultPath returns the default config file location (~/.ladder/config.toml).
func DefaultPath() string {
	return filepath.Join(ladderDir(), "config.toml")
}

// Load reads the config file at path, filling unset fields with defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Intervals converts the configured per-stage day counts into an interval
// table.
func (c *Config) Intervals() (ladder.IntervalTable, error) {
	table := make(ladder.IntervalTable, len(c.StageDays))
	for key, days := range c.StageDays {
		stage, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("stage_days key %q is not a stage number", key)
		}
		table[stage] = time.Duration(days) * ladder.Day
	}
	return table, nil
}

// SchedulerConfig builds the scheduler configuration from the loaded file.
func (c *Config) SchedulerConfig() (ladder.SchedulerConfig, error) {
	intervals, err := c.Intervals()
	if err != nil {
		return ladder.SchedulerConfig{}, err
	}
	return ladder.SchedulerConfig{
		Intervals:     intervals,
		MaxStage:      c.MaxStage,
		ResetStage:    c.ResetStage,
		PassThreshold: c.PassThreshold,
		Jitter:        c.Jitter,
	}, nil
}

func ladderDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ladder")
}
