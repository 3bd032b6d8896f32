// Package config loads the planner configuration from YAML.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const maxFileSize = 1 * 1024 * 1024

type Config struct {
	CollidersPath string `yaml:"colliders_path"`

	Planner PlannerConfig `yaml:"planner"`
	Mission MissionConfig `yaml:"mission"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

type PlannerConfig struct {
	TargetAltitude float64 `yaml:"target_altitude"`
	SafetyDistance float64 `yaml:"safety_distance"`
	// MaxGoalAttempts caps random goal sampling; 0 means 10 x the cell count.
	MaxGoalAttempts int `yaml:"max_goal_attempts"`
}

type MissionConfig struct {
	TakeoffFraction       float64 `yaml:"takeoff_fraction"`
	ProximityThreshold    float64 `yaml:"proximity_threshold"`
	LandingSpeedThreshold float64 `yaml:"landing_speed_threshold"`
	// SimSpeed is the distance the simulated vehicle covers per step.
	SimSpeed float64 `yaml:"sim_speed"`
	MaxSteps int     `yaml:"max_steps"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File enables a rotated JSON log in addition to the console.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		CollidersPath: "colliders.csv",
		Planner: PlannerConfig{
			TargetAltitude: 5,
			SafetyDistance: 5,
		},
		Mission: MissionConfig{
			TakeoffFraction:       0.95,
			ProximityThreshold:    1.0,
			LandingSpeedThreshold: 1.0,
			SimSpeed:              2,
			MaxSteps:              100000,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults. Fields missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return cfg, errors.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to stat config file")
	}
	if info.Size() > maxFileSize {
		return cfg, errors.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	b, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "%s", filepath.Base(cleanPath))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if c.CollidersPath == "" {
		err = multierr.Append(err, errors.New("colliders_path is required"))
	}
	if c.Planner.SafetyDistance < 0 {
		err = multierr.Append(err, errors.Errorf("planner.safety_distance must be >= 0, got %v", c.Planner.SafetyDistance))
	}
	if c.Planner.MaxGoalAttempts < 0 {
		err = multierr.Append(err, errors.Errorf("planner.max_goal_attempts must be >= 0, got %d", c.Planner.MaxGoalAttempts))
	}
	if f := c.Mission.TakeoffFraction; f <= 0 || f > 1 {
		err = multierr.Append(err, errors.Errorf("mission.takeoff_fraction must be in (0, 1], got %v", f))
	}
	if c.Mission.ProximityThreshold <= 0 {
		err = multierr.Append(err, errors.Errorf("mission.proximity_threshold must be > 0, got %v", c.Mission.ProximityThreshold))
	}
	if c.Mission.LandingSpeedThreshold <= 0 {
		err = multierr.Append(err, errors.Errorf("mission.landing_speed_threshold must be > 0, got %v", c.Mission.LandingSpeedThreshold))
	}
	if c.Mission.SimSpeed <= 0 {
		err = multierr.Append(err, errors.Errorf("mission.sim_speed must be > 0, got %v", c.Mission.SimSpeed))
	}
	if c.Mission.MaxSteps <= 0 {
		err = multierr.Append(err, errors.Errorf("mission.max_steps must be > 0, got %d", c.Mission.MaxSteps))
	}
	if c.Server.Addr == "" {
		err = multierr.Append(err, errors.New("server.addr is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, errors.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	return err
}
