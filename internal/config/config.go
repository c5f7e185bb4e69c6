// Package config handles meshtool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/meshlib/internal/logger"
	"github.com/Faultbox/meshlib/pkg/formats"
	"github.com/Faultbox/meshlib/pkg/mesh"
)

// Config holds all meshtool settings.
type Config struct {
	Load    LoadConfig    `yaml:"load" toml:"load"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// LoadConfig controls how mesh files are read.
type LoadConfig struct {
	Dedup          bool `yaml:"dedup" toml:"dedup"`
	BuildTopology  bool `yaml:"build_topology" toml:"build_topology"`
	MarkDegenerate bool `yaml:"mark_degenerate" toml:"mark_degenerate"`
}

// OutputConfig controls how mesh files are written.
type OutputConfig struct {
	// Format is the extension used when an output path has none.
	Format string `yaml:"format" toml:"format"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	LogFile    string `yaml:"log_file" toml:"log_file"`
	JSON       bool   `yaml:"json" toml:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Load: LoadConfig{
			Dedup:          false,
			BuildTopology:  true,
			MarkDegenerate: false,
		},
		Output: OutputConfig{
			Format: "obj",
		},
		Watch: WatchConfig{
			DebounceMS: 200,
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, lerr := zapcore.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	if c.Logging.MaxSizeMB <= 0 {
		err = multierr.Append(err, fmt.Errorf("logging.max_size_mb must be positive, got %d", c.Logging.MaxSizeMB))
	}
	if c.Logging.MaxBackups < 0 {
		err = multierr.Append(err, fmt.Errorf("logging.max_backups must not be negative, got %d", c.Logging.MaxBackups))
	}
	if _, ferr := formats.ForPath("out." + c.Output.Format); ferr != nil {
		err = multierr.Append(err, fmt.Errorf("output.format: %w", ferr))
	}
	if c.Watch.DebounceMS < 0 {
		err = multierr.Append(err, fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS))
	}
	return err
}

// MeshOptions converts the load settings to mesh.Options.
func (c *Config) MeshOptions() mesh.Options {
	return mesh.Options{
		Dedup:          c.Load.Dedup,
		BuildTopology:  c.Load.BuildTopology,
		MarkDegenerate: c.Load.MarkDegenerate,
	}
}

// LoggerOptions converts the logging settings to logger.Options.
// Console output is always on.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{
		Level:   c.Logging.Level,
		Console: true,
		JSON:    c.Logging.JSON,
	}
	if c.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(c.Logging.LogFile)
		opts.File.MaxSizeMB = c.Logging.MaxSizeMB
		opts.File.MaxBackups = c.Logging.MaxBackups
	}
	return opts
}
